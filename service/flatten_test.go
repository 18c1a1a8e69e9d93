package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"luxwise/cv-back/model"
)

func TestFlattenScalarsAndContainers(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"root scalar", "hello", "hello"},
		{"root number", 42, "42"},
		{"nil", nil, ""},
		{"blank string", "   ", ""},
		{"map keys sorted", map[string]any{"b": 2, "a": "x"}, "a: x, b: 2"},
		{"nested", map[string]any{"a": map[string]any{"b": []any{"x", "y"}}}, "a.b[1]: x, a.b[2]: y"},
		{"root list", []any{"x", map[string]any{"k": "v"}}, "[1]: x, [2].k: v"},
		{"nil and blank dropped", map[string]any{"a": nil, "b": " ", "c": "ok"}, "c: ok"},
		{"bool and float", map[string]any{"f": 1.5, "t": true}, "f: 1.5, t: true"},
		{"empty containers", map[string]any{"l": []any{}, "m": map[string]any{}}, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Flatten(c.in))
		})
	}
}

func TestFlattenFieldOrderVersusMapOrder(t *testing.T) {
	type education struct {
		Institution string `json:"institution"`
	}
	type personal struct {
		Phone string `json:"phone"`
	}
	type doc struct {
		PersonalInfo personal    `json:"personal_info"`
		Education    []education `json:"education"`
	}

	in := doc{PersonalInfo: personal{Phone: "123"}, Education: []education{{Institution: "X"}}}
	assert.Equal(t, "personal_info.phone: 123, education[1].institution: X", Flatten(in))

	m := map[string]any{
		"personal_info": map[string]any{"phone": "123"},
		"education":     []any{map[string]any{"institution": "X"}},
	}
	assert.Equal(t, "education[1].institution: X, personal_info.phone: 123", Flatten(m))
}

func TestFlattenStructTags(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}

	type outer struct {
		ID      uint   `json:"id" prompt:"-"`
		Secret  string `json:"-"`
		Title   string `json:"title,omitempty"`
		Plain   string
		Missing *string `json:"missing"`
		Items   []inner `json:"items"`
		hidden  string
	}

	got := Flatten(outer{
		ID:     7,
		Secret: "s",
		Title:  "T",
		Plain:  "p",
		Items:  []inner{{Name: "a"}, {Name: ""}, {Name: "c"}},
		hidden: "h",
	})

	assert.Equal(t, "title: T, Plain: p, items[1].name: a, items[3].name: c", got)
}

func TestFlattenCV(t *testing.T) {
	cv := &model.CV{
		BasicInfo: model.BasicInfo{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		PersonalInfo: &model.PersonalInfo{
			ID:        3,
			AccountID: "acc",
			Phone:     ptr("555"),
			AboutMe:   ptr("  "),
		},
		Education: []model.Education{{ID: 1, AccountID: "acc", Institution: "Uni", Degree: ptr("BSc")}},
		Experience: []model.Experience{{
			ID:        2,
			Workplace: "Engine Co",
			Position:  "Analyst",
			Responsibilities: []model.ExperienceResponsibility{
				{ID: 9, ExperienceID: 2, Responsibility: "Notes"},
			},
			Achievements: []model.ExperienceAchievement{
				{ID: 4, ExperienceID: 2, Achievement: "First program"},
			},
		}},
		Projects: []model.Project{{ID: 5, Name: "Bernoulli", Achievements: []model.ProjectAchievement{}}},
		Skills:   []model.Skill{{ID: 6, Label: "Math", Detail: ptr("Advanced")}},
	}

	want := "basic_info.email: ada@example.com, basic_info.first_name: Ada, basic_info.last_name: Lovelace, " +
		"personal_info.phone: 555, " +
		"education[1].institution: Uni, education[1].degree: BSc, " +
		"experience[1].workplace: Engine Co, experience[1].position: Analyst, " +
		"experience[1].responsibilities[1].responsibility: Notes, experience[1].achievements[1].achievement: First program, " +
		"projects[1].name: Bernoulli, " +
		"skills[1].label: Math, skills[1].detail: Advanced"

	assert.Equal(t, want, Flatten(cv))
	assert.Equal(t, Flatten(cv), Flatten(cv))
	assert.NotContains(t, Flatten(cv), "acc")
}
