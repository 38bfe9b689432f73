package reviews

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/reviewrag/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Title,Date,Rating,Review
Great crust,2024-01-02,5,"Thin, crispy and well charred."
Slow service,2024-02-10,2,Waited forty minutes for a margherita.
Decent value,2024-03-15,3.5,Large portions for the price.
`

func TestParseReadsRowsInOrder(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 0, records[0].Row)
	assert.Equal(t, "Great crust", records[0].Title)
	assert.Equal(t, "Thin, crispy and well charred.", records[0].Body)
	assert.Equal(t, 5.0, records[0].Rating)
	assert.Equal(t, "2024-01-02", records[0].Date)

	assert.Equal(t, 2, records[2].Row)
	assert.Equal(t, 3.5, records[2].Rating)
}

func TestParseHeaderAliasesAndCase(t *testing.T) {
	data := "\uFEFFTITLE,body,STARS,date\nok,fine,4,2024-05-01\n"
	records, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fine", records[0].Body)
	assert.Equal(t, 4.0, records[0].Rating)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "Title,Date,Rating\nA,2024-01-01,5\n",
		"bad rating":     "Title,Date,Rating,Review\nA,2024-01-01,five,B\n",
		"ragged row":     "Title,Date,Rating,Review\nA,2024-01-01,5\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileIsDataLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataLoad))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMalformedIsDataLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Rating\nA,1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataLoad))
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestChecksumChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	first, err := Checksum(path)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	again, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"Extra,2024-06-01,1,Cold\n"), 0o644))
	changed, err := Checksum(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
