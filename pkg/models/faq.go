package models

import (
	"bytes"
	"encoding/json"
)

type FAQCategory struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

// FAQCategoryRef is the category of an FAQ. The detail serializer nests the
// whole category while older list endpoints send only its slug or id.
type FAQCategoryRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (r *FAQCategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = FAQCategoryRef{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var c FAQCategory
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*r = FAQCategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = FAQCategoryRef{Slug: s}
		return nil
	}

	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*r = FAQCategoryRef{ID: id}
	return nil
}

// Matches reports whether the category is the one named by a slug or id.
func (r FAQCategoryRef) Matches(category string) bool {
	if category == "" {
		return false
	}
	return r.Slug == category || r.ID.String() == category
}

// FAQ is a single question/answer pair.
type FAQ struct {
	ID       ID             `json:"id"`
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Language string         `json:"language"`
	Category FAQCategoryRef `json:"category"`
	Order    int            `json:"order"`
	IsActive bool           `json:"is_active"`
}
