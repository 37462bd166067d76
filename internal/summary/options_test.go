package summary

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBooleanIgnoresNonBool(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "false"},
		{"int", 0},
		{"float", 1.0},
		{"nil", nil},
		{"slice", []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			require.NoError(t, f.Set(OptSummarizeSearch, tt.value))
			assert.True(t, f.Enabled(TypeSearch), "previous value must be kept")

			require.NoError(t, f.Set(OptSummarizeEmpty, tt.value))
			assert.False(t, f.SummarizeEmpty())
		})
	}
}

func TestSetBooleanAcceptsBool(t *testing.T) {
	f := New()

	names := map[string]QueryType{
		OptSummarizeSearch:   TypeSearch,
		OptSummarizeDate:     TypeDate,
		OptSummarizeCategory: TypeCategory,
		OptSummarizeTag:      TypeTag,
		OptSummarizeAuthor:   TypeAuthor,
	}
	for name, typ := range names {
		require.NoError(t, f.Set(name, false))
		assert.False(t, f.Enabled(typ), name)
	}

	require.NoError(t, f.Set("SUMMARIZE_EMPTY", true))
	assert.True(t, f.SummarizeEmpty())
}

func TestSetStringCoerces(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "<div>", "<div>"},
		{"int", 42, "42"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"bytes", []byte("raw"), "raw"},
		{"nil", nil, ""},
		{"slice", []string{"a", "b"}, "[a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			require.NoError(t, f.Set(OptPrefix, tt.value))
			assert.Equal(t, tt.want, f.Prefix())
		})
	}
}

func TestSetEveryStringOption(t *testing.T) {
	f := New()
	for name := range stringFields {
		require.NoError(t, f.Set(name, 7))
		got, err := f.Get(name)
		require.NoError(t, err)
		assert.Equal(t, "7", got, name)
	}
	assert.Equal(t, "7", f.Template(TypeDate))
	assert.Equal(t, "7", f.EmptyMessage())
}

func TestSetUnknownOption(t *testing.T) {
	f := New()
	err := f.Set("colour", "red")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOption))

	_, err = f.Get("colour")
	assert.True(t, errors.Is(err, ErrUnknownOption))
}

func TestApplyReportsUnknownButAppliesKnown(t *testing.T) {
	f := New()
	err := f.Apply(map[string]any{
		OptSuffix:          "</div>",
		OptSummarizeTag:    "no",
		OptSummarizeAuthor: false,
		"bogus":            1,
		"other":            2,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOption))
	assert.Contains(t, err.Error(), "bogus, other")
	assert.Equal(t, "</div>", f.Suffix())
	assert.True(t, f.Enabled(TypeTag))
	assert.False(t, f.Enabled(TypeAuthor))
}

func TestSettingsRoundTrip(t *testing.T) {
	src := New()
	src.SetEnabled(TypeDate, false)
	src.SetDayFormat("Y-m-d")
	src.SetTemplate(TypeSearch, "%totalPosts% hits")

	dst := New()
	require.NoError(t, dst.Apply(src.Settings()))
	assert.Equal(t, src.Settings(), dst.Settings())
	assert.Len(t, src.Settings(), len(OptionNames()))
}

func TestOptionNamesSorted(t *testing.T) {
	names := OptionNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, OptEmptyMessage)
	assert.Contains(t, names, OptSummarizeEmpty)
}
