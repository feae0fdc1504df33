package head

import (
	"strconv"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// templateData is what page-type templates see
type templateData struct {
	Name     string
	Category string
	Level    string
	Site     string
}

type template struct {
	title       func(d templateData) string
	description func(d templateData) string
}

func atCategory(category string) string {
	if category == "" {
		return ""
	}
	return " at " + category
}

func levelNote(l string) string {
	if l == "" {
		return ""
	}
	return " (" + l + ")"
}

var templates = map[types.PageType]template{
	types.PageTypeUniversityDetail: {
		title: func(d templateData) string { return d.Name + " - Courses, Fees & Admission | " + d.Site },
		description: func(d templateData) string {
			return "Explore " + d.Name + ": courses, fees, rankings, intakes and admission requirements for international students in Malaysia."
		},
	},
	types.PageTypeUniversityCourseDetail: {
		title: func(d templateData) string { return d.Name + atCategory(d.Category) + " | " + d.Site },
		description: func(d templateData) string {
			return "Study " + d.Name + levelNote(d.Level) + atCategory(d.Category) + " in Malaysia: fees, duration, entry requirements and intakes."
		},
	},
	types.PageTypeCourseDetail: {
		title: func(d templateData) string { return d.Name + " Course in Malaysia | " + d.Site },
		description: func(d templateData) string {
			return "Study " + d.Name + levelNote(d.Level) + " in Malaysia: compare universities, fees, duration and entry requirements."
		},
	},
	types.PageTypeExamDetail: {
		title: func(d templateData) string { return d.Name + " Exam Guide | " + d.Site },
		description: func(d templateData) string {
			return "Everything about the " + d.Name + " exam: format, fees, dates and preparation tips for studying in Malaysia."
		},
	},
	types.PageTypeServiceDetail: {
		title: func(d templateData) string { return d.Name + " | Student Services | " + d.Site },
		description: func(d templateData) string {
			return d.Name + " by " + d.Site + ": guidance for international students planning to study in Malaysia."
		},
	},
	types.PageTypeScholarshipDetail: {
		title: func(d templateData) string { return d.Name + " Scholarship | " + d.Site },
		description: func(d templateData) string {
			return d.Name + ": eligibility, benefits and how to apply for this scholarship in Malaysia."
		},
	},
	types.PageTypeSpecializationDetail: {
		title: func(d templateData) string { return d.Name + " Courses in Malaysia | " + d.Site },
		description: func(d templateData) string {
			return "Find " + d.Name + " courses at top universities in Malaysia: compare fees, intakes and entry requirements."
		},
	},
	types.PageTypeCoursesList: {
		title: func(d templateData) string { return d.Name + " Courses in Malaysia | " + d.Site },
		description: func(d templateData) string {
			return "Browse " + d.Name + " courses in Malaysia: compare universities, fees, intakes and entry requirements."
		},
	},
	types.PageTypeUniversityList: {
		title: func(d templateData) string { return d.Name + " in Malaysia | " + d.Site },
		description: func(d templateData) string {
			return "Compare " + d.Name + " in Malaysia by ranking, fees and courses offered."
		},
	},
	types.PageTypeBlogDetail: {
		title:       func(d templateData) string { return d.Name + " | " + d.Site + " Blog" },
		description: func(d templateData) string { return "Read " + d.Name + " on the " + d.Site + " blog." },
	},
	types.PageTypeBlogCategory: {
		title: func(d templateData) string { return d.Name + " Articles | " + d.Site + " Blog" },
		description: func(d templateData) string {
			return "Latest " + d.Name + " articles, guides and news for students planning to study in Malaysia."
		},
	},
}

func genericTitle(d templateData) string { return d.Name + " | " + d.Site }

// templateTitle renders the page-type title for a named item, or "" when
// the caller supplied no name
func templateTitle(pt types.PageType, d templateData, page int) string {
	if d.Name == "" {
		return ""
	}
	render := genericTitle
	if t, ok := templates[pt]; ok {
		render = t.title
	}
	title := render(d)
	if page > 1 {
		title += " - Page " + strconv.Itoa(page)
	}
	return title
}

// templateDescription renders the page-type description, or "" when there
// is no name or no template for the page type
func templateDescription(pt types.PageType, d templateData) string {
	if d.Name == "" {
		return ""
	}
	t, ok := templates[pt]
	if !ok {
		return ""
	}
	return t.description(d)
}
