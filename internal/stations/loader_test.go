package stations

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.cfg")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSingleSection(t *testing.T) {
	path := writeConfig(t, `
[STA1]
name = A
station = ANMO
network = IU
location = 00
channel = BHZ
`)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "STA1", r.Title)
	assert.Equal(t, 0, r.OpOff)

	ch, ok := r.Channel().Scalar()
	require.True(t, ok)
	assert.Equal(t, "BHZ", ch)
	assert.Equal(t, []string{"IU"}, r.Network().Values())
	assert.Equal(t, "00", r.Location().String())
	assert.Equal(t, "A", r.Name().String())
}

func TestLoadSplitsCommaSeparatedValues(t *testing.T) {
	path := writeConfig(t, `
[Multi]
name = multi
station = ANMO
network = IU
location = 00
channel = BHZ, BHN ,BHE
`)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	ch := records[0].Channel()
	require.True(t, ch.IsList())
	items, ok := ch.List()
	require.True(t, ok)
	assert.Equal(t, []string{"BHZ", "BHN", "BHE"}, items)

	_, ok = ch.Scalar()
	assert.False(t, ok)
}

func TestLoadOpOff(t *testing.T) {
	base := "[S]\nname=a\nstation=b\nnetwork=c\nlocation=d\nchannel=e\n"

	records, err := Load(writeConfig(t, base+"opOff = 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, records[0].OpOff)

	records, err = Load(writeConfig(t, base+"OPOFF = -3\n"))
	require.NoError(t, err)
	assert.Equal(t, -3, records[0].OpOff)

	_, err = Load(writeConfig(t, base+"opOff = abc\n"))
	var malformed *MalformedConfigError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "S", malformed.Section)
	assert.Equal(t, FieldOpOff, malformed.Field)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
[STA1]
name = A
station = ANMO
network = IU
location = 00
channel = BHZ

[STA2]
name = B
station = COLA
location = 00
channel = BHZ
`)

	records, err := Load(path)
	assert.Nil(t, records)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "STA2", missing.Section)
	assert.Equal(t, FieldNetwork, missing.Field)
	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "STA2")
}

func TestLoadPreservesSectionOrder(t *testing.T) {
	body := ""
	for _, s := range []string{"Zeta", "Alpha", "Mu"} {
		body += "[" + s + "]\nname=n\nstation=s\nnetwork=n\nlocation=00\nchannel=BHZ\n"
	}

	records, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	var titles []string
	for _, r := range records {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mu"}, titles)
}

func TestLoadDefaultSectionFallback(t *testing.T) {
	path := writeConfig(t, `
[DEFAULT]
network = IU
location = 00

[ANMO]
name = Albuquerque
station = ANMO
channel = BHZ
`)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "IU", records[0].Network().String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.cfg")
}

func TestParseCustomRequiredFields(t *testing.T) {
	records, err := Parse([]byte("[X]\nstation = ANMO\n"), []string{FieldStation})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ANMO", records[0].Station().String())
}

func TestFieldValueVariants(t *testing.T) {
	s := ParseFieldValue("BHZ")
	assert.False(t, s.IsList())
	assert.Equal(t, []string{"BHZ"}, s.Values())

	l := List("a", "b")
	items, ok := l.List()
	require.True(t, ok)
	items[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, l.Values())
	assert.Equal(t, "a,b", l.String())
}

func TestLoadKeepsInlineHashInValues(t *testing.T) {
	path := writeConfig(t, `
# whole-line comments are skipped
[STA1]
name = A
station = ANMO
network = IU
location = 00
channel = BHZ # vertical
; another comment
`)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BHZ # vertical", records[0].Channel().String())
}
