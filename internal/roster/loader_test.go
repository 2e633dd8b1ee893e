package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
school: Bhagyabantapur Primary School
teachers:
  - code: TR
    name: Tapasi Rana
    email: tapasi@example.org
  - code: SBR
    name: Sujata Biswas Rotha
  - code: RS
    name: Rohini Singh
`

func TestLoadYAML(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleYAML), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "Bhagyabantapur Primary School", doc.School)
	assert.Equal(t, 3, doc.Roster.Len())
	ref, ok := doc.Roster.Resolve("sujata biswas rotha")
	require.True(t, ok)
	assert.Equal(t, "SBR", ref.Code)

	tr, _ := doc.Roster.Lookup("TR")
	assert.Equal(t, "tapasi@example.org", tr.Email)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"teachers":[{"code":"UNJ","name":"Uday Narayan Jana"}]}`), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"UNJ"}, []string{doc.Roster.All()[0].Code})
}

func TestLoadRejectsBadRosters(t *testing.T) {
	_, err := Load(strings.NewReader("teachers: []"), "yaml")
	assert.Error(t, err)

	_, err = Load(strings.NewReader("teachers:\n  - code: TR\n  - code: tr\n"), "yaml")
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
