package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type Member struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

type Team struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Members     []Member   `json:"members"`
	ProjectIDs  []string   `json:"projectIds,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// RawMember accepts either {"userId": "...", "role": "..."} or a bare user id.
type RawMember struct {
	UserID FlexID `json:"userId"`
	Role   string `json:"role"`
}

func (m *RawMember) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		var id FlexID
		if err := id.UnmarshalJSON(b); err != nil {
			return err
		}
		*m = RawMember{UserID: id}
		return nil
	}
	type plain RawMember
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = RawMember(p)
	return nil
}

type RawTeam struct {
	ID          FlexID      `json:"id"`
	MongoID     FlexID      `json:"_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Members     []RawMember `json:"members"`
	ProjectIDs  []FlexID    `json:"projectIds"`
	CreatedAt   FlexTime    `json:"createdAt"`
}

func (r RawTeam) Normalize() Team {
	t := Team{
		ID:          string(firstID(r.ID, r.MongoID)),
		Name:        r.Name,
		Description: r.Description,
		Members:     make([]Member, 0, len(r.Members)),
		CreatedAt:   r.CreatedAt.Ptr(),
	}
	for _, m := range r.Members {
		role := ParseRole(m.Role)
		if role == RoleUnknown {
			role = RoleMember
		}
		t.Members = append(t.Members, Member{UserID: string(m.UserID), Role: role})
	}
	for _, id := range r.ProjectIDs {
		t.ProjectIDs = append(t.ProjectIDs, string(id))
	}
	return t
}

func NormalizeTeams(raw []RawTeam) []Team {
	out := make([]Team, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out
}
