package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *RequestEvent {
	return &RequestEvent{
		RequestID:  "req-1",
		CreatedAt:  time.Date(2025, 3, 4, 10, 20, 30, 123_000_000, time.UTC),
		EventType:  EventTypePage,
		Method:     "GET",
		Path:       "/university/taylors-university",
		PageType:   "university-detail",
		Title:      "Taylor's \"Best\"\nUniversity",
		StatusCode: 200,
		PageSize:   5120,
		ServeTime:  0.0421,
	}
}

func TestNewTemplateFormatter_Validation(t *testing.T) {
	tests := []struct {
		name     string
		template string
		errPart  string
	}{
		{"empty", "", "cannot be empty"},
		{"unknown", "{host}", "unknown placeholder {host}"},
		{"unclosed", "{path", "unclosed placeholder"},
		{"empty placeholder", "a {} b", "empty placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTemplateFormatter(tt.template)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}

	assert.NoError(t, ValidateTemplate("{timestamp} {path} {status_code}"))
}

func TestTemplateFormatter_Format(t *testing.T) {
	f, err := NewTemplateFormatter("{timestamp}\t{method} {path}\t{status_code}\t{page_size}\t{serve_time}\t{endpoint}")
	require.NoError(t, err)

	line := f.Format(sampleEvent())
	assert.Equal(t, "2025-03-04T10:20:30.123Z\t\"GET\" \"/university/taylors-university\"\t200\t5120\t0.042\t-", line)
}

func TestTemplateFormatter_EscapesStrings(t *testing.T) {
	f, err := NewTemplateFormatter("title={title}")
	require.NoError(t, err)

	assert.Equal(t, `title="Taylor's \"Best\"\nUniversity"`, f.Format(sampleEvent()))
}

func TestTemplateFormatter_Crawler(t *testing.T) {
	f, err := NewTemplateFormatter("{crawler} {user_agent}")
	require.NoError(t, err)

	e := sampleEvent()
	assert.Equal(t, "- -", f.Format(e))

	e.Crawler = "*googlebot*"
	e.UserAgent = "Googlebot/2.1"
	assert.Equal(t, `"*googlebot*" "Googlebot/2.1"`, f.Format(e))
}

func TestTemplateFormatter_NoPlaceholders(t *testing.T) {
	f, err := NewTemplateFormatter("static line")
	require.NoError(t, err)
	assert.Equal(t, "static line", f.Format(sampleEvent()))
	assert.Equal(t, "static line", f.Template())
}

func TestJSONFormatter(t *testing.T) {
	line := JSONFormatter{}.Format(sampleEvent())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "req-1", decoded["request_id"])
	assert.Equal(t, "university-detail", decoded["page_type"])
	assert.Equal(t, float64(200), decoded["status_code"])
	assert.NotContains(t, decoded, "endpoint")
	assert.NotContains(t, line, "\n")
}
