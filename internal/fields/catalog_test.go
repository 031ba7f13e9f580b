package fields

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	for _, row := range precedence {
		e, ok := c.Fields[row.id]
		assert.True(t, ok, "catalog entry for %s", row.id)
		assert.NotEmpty(t, e.Question, row.id)
	}

	d := c.Descriptor(FieldBuildType)
	assert.Equal(t, KindSingle, d.Kind)
	assert.False(t, d.AllowCustom)
	assert.Len(t, d.Options, 2)

	d = c.Descriptor(FieldName)
	assert.True(t, d.RemoteHandled)
	assert.Equal(t, KindName, d.Kind)
}

func TestDescriptor_UnknownField(t *testing.T) {
	d := DefaultCatalog().Descriptor("mascot")
	assert.Equal(t, KindText, d.Kind)
	assert.Contains(t, d.Question, "mascot")
	assert.True(t, d.AllowCustom)
}

func TestDescriptor_OptionsAreCopied(t *testing.T) {
	c := DefaultCatalog()
	d := c.Descriptor(FieldPlatform)
	d.Options[0] = "changed"
	assert.Equal(t, "WordPress", c.Descriptor(FieldPlatform).Options[0])
}

func TestLoadCatalogBytes_Overlay(t *testing.T) {
	t.Setenv("TEST_PLATFORM_Q", "Pick a CMS")
	c, err := LoadCatalogBytes([]byte(`
fields:
  platform:
    question: ${TEST_PLATFORM_Q}
    options: [Drupal, Ghost]
    allowCustom: false
  timeline:
    minLength: 4
`))
	require.NoError(t, err)

	d := c.Descriptor(FieldPlatform)
	assert.Equal(t, "Pick a CMS", d.Question)
	assert.Equal(t, []string{"Drupal", "Ghost"}, d.Options)
	assert.False(t, d.AllowCustom)
	assert.Equal(t, KindSingle, d.Kind, "kind kept from default")

	d = c.Descriptor(FieldTimeline)
	assert.Equal(t, 4, d.MinLength)
	assert.NotEmpty(t, d.Question)
}

func TestLoadCatalogBytes_UnknownKind(t *testing.T) {
	_, err := LoadCatalogBytes([]byte("fields:\n  budget:\n    kind: dropdown\n"))
	assert.Error(t, err)
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  budget:\n    question: How much?\n"), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "How much?", c.Descriptor(FieldBudget).Question)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = LoadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Fields)
}

func TestLoadCatalog_ExpandsEnv(t *testing.T) {
	t.Setenv("INTAKE_CURRENCY", "INR")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  budget:\n    question: What is your budget in ${INTAKE_CURRENCY}?\n"), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "What is your budget in INR?", c.Descriptor(FieldBudget).Question)
}

func TestLoadCatalog_KeepsBareDollars(t *testing.T) {
	t.Setenv("USD", "should not appear")
	const q = "What budget (e.g. $5000 or $USD) do you have?"
	data := []byte("fields:\n  budget:\n    question: \"" + q + "\"\n")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	fromFile, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, q, fromFile.Descriptor(FieldBudget).Question)

	fromBytes, err := LoadCatalogBytes(data)
	require.NoError(t, err)
	assert.Equal(t, q, fromBytes.Descriptor(FieldBudget).Question)
}
