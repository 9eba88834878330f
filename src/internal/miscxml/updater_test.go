package miscxml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideset/src/internal/miscxml"
)

func miscPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "misc.xml")
}

func TestUpdate_CreatesFileFromScratch(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	require.NoError(t, miscxml.Update(path, "Poetry (abc123)", true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"),
		"declaration must be the first line")
	assert.Contains(t, content, `<project version="4">`)
	assert.Contains(t, content, `name="ProjectRootManager"`)
	assert.Contains(t, content, `project-jdk-name="Poetry (abc123)"`)
	assert.Contains(t, content, `project-jdk-type="Python SDK"`)
	assert.Contains(t, content, `version="2"`)
	assert.Contains(t, content, `languageLevel="JDK_11"`)
	assert.Contains(t, content, `url="file://$PROJECT_DIR$/out"`)

	// No file existed, so nothing to back up.
	_, err = os.Stat(path + miscxml.BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_Idempotent(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	require.NoError(t, miscxml.Update(path, "Poetry (env-1)", false))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, miscxml.Update(path, "Poetry (env-1)", false))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestUpdate_PreservesUnrelatedComponents(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	existing := `<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="OtherComponent" foo="bar">
    <option name="keep" value="me"/>
  </component>
  <component name="ProjectRootManager" version="2" project-jdk-name="Old" project-jdk-type="Python SDK"/>
  <component name="VcsDirectoryMappings">
    <mapping directory="$PROJECT_DIR$" vcs="Git"/>
  </component>
</project>
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))
	require.NoError(t, miscxml.Update(path, "New", false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `project-jdk-name="New"`)
	assert.NotContains(t, content, `project-jdk-name="Old"`)
	assert.Contains(t, content, `name="OtherComponent"`)
	assert.Contains(t, content, `foo="bar"`)
	assert.Contains(t, content, `<option name="keep" value="me"/>`)
	assert.Contains(t, content, `name="VcsDirectoryMappings"`)
	assert.Contains(t, content, `vcs="Git"`)
}

func TestUpdate_NeverDuplicatesBlock(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	require.NoError(t, miscxml.Update(path, "Poetry (a)", false))
	require.NoError(t, miscxml.Update(path, "Poetry (b)", false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(data), `name="ProjectRootManager"`))
	assert.Contains(t, string(data), `project-jdk-name="Poetry (b)"`)
}

func TestUpdate_BackupMatchesOriginalBytes(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	original := `<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="ProjectRootManager" version="2" project-jdk-name="Old"/>
</project>
`
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))
	require.NoError(t, miscxml.Update(path, "New", true))

	backup, err := os.ReadFile(path + miscxml.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	// The backup itself must never be backed up.
	_, err = os.Stat(path + miscxml.BackupSuffix + miscxml.BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_FailedWriteLeavesBackupAndOriginalIntact(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	path := miscPath(t)
	original := `<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="ProjectRootManager" version="2" project-jdk-name="Old"/>
</project>
`
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))
	require.NoError(t, os.Chmod(path, 0444))

	err := miscxml.Update(path, "New", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, miscxml.ErrMalformed)
	assert.NotErrorIs(t, err, miscxml.ErrNotFile)
	assert.Contains(t, err.Error(), "failed to write")

	// The backup was taken before the write attempt and must survive it.
	backup, readErr := os.ReadFile(path + miscxml.BackupSuffix)
	require.NoError(t, readErr)
	assert.Equal(t, original, string(backup))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, string(data), "failed write must not corrupt the original")
}

func TestUpdate_MalformedFileRejectedWithoutWriteOrBackup(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not xml"), 0644))

	err := miscxml.Update(path, "Poetry (x)", true)
	require.ErrorIs(t, err, miscxml.ErrMalformed)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "not xml", string(data), "malformed file must not be rewritten")

	_, statErr := os.Stat(path + miscxml.BackupSuffix)
	assert.True(t, os.IsNotExist(statErr), "malformed file must not be backed up")
}

func TestUpdate_DirectoryPathRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := miscxml.Update(dir, "Poetry (x)", false)
	require.ErrorIs(t, err, miscxml.ErrNotFile)
}

func TestUpdate_MarkerCommentPrecedesCreatedBlock(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	existing := `<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="OtherComponent"/>
</project>
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))
	require.NoError(t, miscxml.Update(path, "Poetry (x)", false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	commentAt := strings.Index(content, "<!--")
	blockAt := strings.Index(content, `name="ProjectRootManager"`)
	require.GreaterOrEqual(t, commentAt, 0, "expected a marker comment")
	assert.Less(t, commentAt, blockAt, "marker comment must sit before the created block")

	// Updating an existing block must not add a second marker.
	require.NoError(t, miscxml.Update(path, "Poetry (y)", false))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "<!--"))
}

func TestUpdate_KeepsExistingOutputChild(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	existing := `<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="ProjectRootManager" version="2" project-jdk-name="Old">
    <output url="file://$PROJECT_DIR$/custom-out"/>
  </component>
</project>
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))
	require.NoError(t, miscxml.Update(path, "New", false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `url="file://$PROJECT_DIR$/custom-out"`)
	assert.Equal(t, 1, strings.Count(content, "<output"))
}

func TestUpdate_SingleDeclarationLine(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	require.NoError(t, os.WriteFile(path, []byte(`<project version="4"/>`), 0644))
	require.NoError(t, miscxml.Update(path, "Poetry (x)", false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"))
	assert.Equal(t, 1, strings.Count(content, "<?xml"))
}

func TestCurrentInterpreter(t *testing.T) {
	t.Parallel()

	path := miscPath(t)

	_, ok := miscxml.CurrentInterpreter(path)
	assert.False(t, ok, "missing file has no interpreter")

	require.NoError(t, os.WriteFile(path, []byte(`<project version="4"><component name="Other"/></project>`), 0644))
	_, ok = miscxml.CurrentInterpreter(path)
	assert.False(t, ok, "missing block has no interpreter")

	require.NoError(t, miscxml.Update(path, "Poetry (abc123)", false))
	name, ok := miscxml.CurrentInterpreter(path)
	require.True(t, ok)
	assert.Equal(t, "Poetry (abc123)", name)

	require.NoError(t, os.WriteFile(path, []byte("not xml"), 0644))
	_, ok = miscxml.CurrentInterpreter(path)
	assert.False(t, ok, "parse failure reads as absent")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	path := miscPath(t)
	assert.True(t, miscxml.Validate(path), "missing file is valid")

	require.NoError(t, os.WriteFile(path, []byte("not xml"), 0644))
	assert.False(t, miscxml.Validate(path))

	require.NoError(t, os.WriteFile(path, []byte(`<workspace version="4"/>`), 0644))
	assert.False(t, miscxml.Validate(path), "wrong root tag")

	require.NoError(t, os.WriteFile(path, []byte(`<project/>`), 0644))
	assert.False(t, miscxml.Validate(path), "missing version attribute")

	require.NoError(t, os.WriteFile(path, []byte(`<project version="4"/>`), 0644))
	assert.True(t, miscxml.Validate(path))
}

func TestSDKName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Poetry (abc123)", miscxml.SDKName("abc123"))
}
