package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

func TestClassify_PageTypes(t *testing.T) {
	tests := []struct {
		path     string
		pageType types.PageType
		params   map[string]string
	}{
		{path: "/", pageType: types.PageTypeHome},
		{path: "", pageType: types.PageTypeHome},
		{path: "/faqs", pageType: types.PageTypeFAQ},
		{path: "/faqs/", pageType: types.PageTypeFAQ},
		{path: "/FAQS", pageType: types.PageTypeFAQ},
		{path: "/blog", pageType: types.PageTypeBlogList},
		{path: "/scholarships", pageType: types.PageTypeScholarshipList},
		{path: "/specialization", pageType: types.PageTypeSpecializationList},
		{path: "/resources/exams", pageType: types.PageTypeExamList},
		{path: "/resources/services", pageType: types.PageTypeServiceList},
		{path: "/universities", pageType: types.PageTypeUniversityList},
		{path: "/courses-in-malaysia", pageType: types.PageTypeCoursesList},
		{path: "/courses-in-malaysias", pageType: types.PageTypeCoursesList},
		{
			path:     "/universities/private-universities",
			pageType: types.PageTypeUniversityList,
			params:   map[string]string{types.ParamType: "private-universities"},
		},
		{
			path:     "/university/taylors-university",
			pageType: types.PageTypeUniversityDetail,
			params:   map[string]string{types.ParamSlug: "taylors-university"},
		},
		{
			path:     "/university/taylors-university/courses/mba",
			pageType: types.PageTypeUniversityCourseDetail,
			params:   map[string]string{types.ParamSlug: "taylors-university", types.ParamCourseSlug: "mba"},
		},
		{
			path:     "/resources/exams/ielts",
			pageType: types.PageTypeExamDetail,
			params:   map[string]string{types.ParamSlug: "ielts"},
		},
		{
			path:     "/resources/services/visa-guidance",
			pageType: types.PageTypeServiceDetail,
			params:   map[string]string{types.ParamSlug: "visa-guidance"},
		},
		{
			path:     "/scholarships/merit-award",
			pageType: types.PageTypeScholarshipDetail,
			params:   map[string]string{types.ParamSlug: "merit-award"},
		},
		{
			path:     "/specialization/data-science",
			pageType: types.PageTypeSpecializationDetail,
			params:   map[string]string{types.ParamSlug: "data-science"},
		},
		{
			path:     "/blog/education",
			pageType: types.PageTypeBlogCategory,
			params:   map[string]string{types.ParamCategory: "education"},
		},
		{
			path:     "/blog/education/study-in-malaysia-42",
			pageType: types.PageTypeBlogDetail,
			params:   map[string]string{types.ParamCategory: "education", types.ParamSlugWithID: "study-in-malaysia-42"},
		},
		{
			path:     "/courses/accounting",
			pageType: types.PageTypeCourseDetail,
			params:   map[string]string{types.ParamSlug: "accounting"},
		},
		{path: "/who-we-are", pageType: types.PageTypeNotFound},
		{path: "/university", pageType: types.PageTypeNotFound},
		{path: "/university/a/b", pageType: types.PageTypeNotFound},
		{path: "/-courses", pageType: types.PageTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c := Classify(tt.path, "")
			assert.Equal(t, tt.pageType, c.PageType)
			assert.Equal(t, tt.params, c.Params)
			assert.Equal(t, tt.path, c.Path)
			if tt.pageType == types.PageTypeNotFound {
				assert.Empty(t, c.Route)
			} else {
				assert.NotEmpty(t, c.Route)
			}
		})
	}
}

func TestClassify_FilterInference(t *testing.T) {
	tests := []struct {
		path  string
		key   string
		value string
	}{
		{path: "/diploma-courses", key: types.FilterLevel, value: "diploma"},
		{path: "/post-graduate-diploma-courses", key: types.FilterLevel, value: "post-graduate-diploma"},
		{path: "/phd-courses", key: types.FilterLevel, value: "phd"},
		{path: "/january-courses", key: types.FilterIntake, value: "january"},
		{path: "/online-courses", key: types.FilterStudyMode, value: "online"},
		{path: "/by-course-work-courses", key: types.FilterStudyMode, value: "by-course-work"},
		{path: "/data-science-courses", key: types.FilterSpecialization, value: "data-science"},
		{path: "/Diploma-Courses", key: types.FilterLevel, value: "diploma"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c := Classify(tt.path, "")
			assert.Equal(t, types.PageTypeCoursesList, c.PageType)
			assert.Equal(t, "filtered-courses", c.Route)
			assert.Equal(t, map[string]string{tt.key: tt.value}, c.Filters)
		})
	}
}

func TestClassify_Pagination(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		query        string
		page         int
		explicit     bool
		fromPath     bool
		wantPageType types.PageType
	}{
		{name: "no page", path: "/diploma-courses", page: 1, wantPageType: types.PageTypeCoursesList},
		{name: "path page", path: "/diploma-courses/page-3", page: 3, explicit: true, fromPath: true, wantPageType: types.PageTypeCoursesList},
		{name: "query page", path: "/courses-in-malaysia", query: "page=4", page: 4, explicit: true, wantPageType: types.PageTypeCoursesList},
		{name: "leading question mark", path: "/blog", query: "?page=2", page: 2, explicit: true, wantPageType: types.PageTypeBlogList},
		{name: "path wins over query", path: "/diploma-courses/page-3", query: "page=9", page: 3, explicit: true, fromPath: true, wantPageType: types.PageTypeCoursesList},
		{name: "university type page", path: "/universities/public-universities/page-2", page: 2, explicit: true, fromPath: true, wantPageType: types.PageTypeUniversityList},
		{name: "invalid query page", path: "/blog", query: "page=abc", page: 1, wantPageType: types.PageTypeBlogList},
		{name: "zero query page", path: "/blog", query: "page=0", page: 1, wantPageType: types.PageTypeBlogList},
		{name: "negative query page", path: "/blog", query: "page=-2", page: 1, wantPageType: types.PageTypeBlogList},
		{name: "zero path page falls back to query", path: "/diploma-courses/page-0", query: "page=5", page: 5, explicit: true, fromPath: true, wantPageType: types.PageTypeCoursesList},
		{name: "path page not allowed on detail", path: "/university/um/page-2", page: 1, wantPageType: types.PageTypeNotFound},
		{name: "uppercase path page", path: "/diploma-courses/PAGE-3", page: 3, explicit: true, fromPath: true, wantPageType: types.PageTypeCoursesList},
		{name: "courses listing path page", path: "/courses-in-malaysia/page-2", page: 2, explicit: true, fromPath: true, wantPageType: types.PageTypeCoursesList},
		{name: "blog path page", path: "/blog/page-3", page: 3, explicit: true, fromPath: true, wantPageType: types.PageTypeBlogList},
		{name: "blog category path page", path: "/blog/news/page-2", page: 2, explicit: true, fromPath: true, wantPageType: types.PageTypeBlogCategory},
		{name: "universities path page", path: "/universities/page-2", page: 2, explicit: true, fromPath: true, wantPageType: types.PageTypeUniversityList},
		{name: "page segment is never a type", path: "/universities/page-2/page-3", page: 1, wantPageType: types.PageTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.path, tt.query)
			assert.Equal(t, tt.wantPageType, c.PageType)
			assert.Equal(t, tt.page, c.Page)
			assert.Equal(t, tt.explicit, c.PageExplicit)
			assert.Equal(t, tt.fromPath, c.PageFromPath)
		})
	}
}

func TestClassify_PageSuffixIsNotAParam(t *testing.T) {
	c := Classify("/universities/page-2", "")
	assert.Equal(t, "universities", c.Route)
	assert.Empty(t, c.Params)
	assert.Equal(t, 2, c.Page)

	c = Classify("/blog/page-4", "")
	assert.Equal(t, "blog", c.Route)
	assert.Empty(t, c.Param(types.ParamCategory))
	assert.Equal(t, 4, c.Page)

	c = Classify("/blog/news/page-2", "")
	assert.Equal(t, "blog-category", c.Route)
	assert.Equal(t, "news", c.Param(types.ParamCategory))

	c = Classify("/blog/news/study-abroad-12", "")
	assert.Equal(t, "blog-post", c.Route)
}

func TestClassify_Paginated(t *testing.T) {
	for _, p := range []string{"/blog", "/blog/news", "/universities", "/universities/public-universities", "/courses-in-malaysia", "/courses-in-malaysias", "/diploma-courses"} {
		assert.True(t, Classify(p, "").Paginated, p)
	}
	for _, p := range []string{"/", "/faqs", "/scholarships", "/university/um", "/nope"} {
		assert.False(t, Classify(p, "").Paginated, p)
	}
}

func TestClassify_KeepsQuery(t *testing.T) {
	c := Classify("/courses-in-malaysia", "level=diploma&intake=may")
	assert.Equal(t, "level=diploma&intake=may", c.RawQuery)
	assert.Equal(t, "diploma", c.Query.Get("level"))
	assert.Equal(t, "may", c.Query.Get("intake"))

	c = Classify("/", "%zz")
	assert.NotNil(t, c.Query)
	assert.Equal(t, types.PageTypeHome, c.PageType)
}

func TestClassify_BasePath(t *testing.T) {
	basePath := func(pathname string) string {
		c := Classify(pathname, "")
		return c.BasePath()
	}
	assert.Equal(t, "/diploma-courses", basePath("/diploma-courses/page-3"))
	assert.Equal(t, "/diploma-courses", basePath("/diploma-courses/"))
	assert.Equal(t, "/diploma-courses", basePath("/diploma-courses/PAGE-3"))
	assert.Equal(t, "/universities", basePath("/universities/page-2/"))
	assert.Equal(t, "/", basePath("/"))
}

func TestClassify_Deterministic(t *testing.T) {
	for _, p := range []string{"/", "/diploma-courses/page-2", "/blog/news/post-1", "/nope"} {
		assert.Equal(t, Classify(p, "page=2"), Classify(p, "page=2"))
	}
}

func TestRouteNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range RouteNames() {
		assert.False(t, seen[n], "duplicate route %s", n)
		seen[n] = true
	}
	assert.Equal(t, "home", RouteNames()[0])
	assert.Equal(t, "filtered-courses", RouteNames()[len(RouteNames())-1])
}

func TestInferCourseFilter(t *testing.T) {
	key, value := InferCourseFilter("march")
	assert.Equal(t, types.FilterIntake, key)
	assert.Equal(t, "march", value)

	key, value = InferCourseFilter("part-time")
	assert.Equal(t, types.FilterStudyMode, key)
	assert.Equal(t, "part-time", value)

	key, _ = InferCourseFilter("engineering")
	assert.Equal(t, types.FilterSpecialization, key)
}
