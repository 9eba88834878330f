package miscxml

import (
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"

	"ideset/src/internal/telemetry"
)

// misc.xml structure expected by IntelliJ IDEA and PyCharm.
const (
	RootTag        = "project"
	RootVersion    = "4"
	ComponentTag   = "component"
	ComponentName  = "ProjectRootManager"
	componentVer   = "2"
	languageLevel  = "JDK_11"
	SDKType        = "Python SDK"
	outputTag      = "output"
	outputURL      = "file://$PROJECT_DIR$/out"
	BackupSuffix   = ".backup"
	xmlDeclaration = `version="1.0" encoding="UTF-8"`
)

// markerComment is written directly above a ProjectRootManager block that
// ideset creates from scratch, so users can tell where the entry came from.
const markerComment = " Python interpreter entry managed by ideset "

var (
	// ErrMalformed reports an existing misc.xml that does not parse.
	ErrMalformed = errors.New("misc.xml is not well-formed XML")
	// ErrNotFile reports a misc.xml path occupied by something other than a
	// regular file.
	ErrNotFile = errors.New("misc.xml path is not a regular file")
)

// Update rewrites the ProjectRootManager component of the misc.xml at path so
// project-jdk-name points at sdkName. A missing file is initialized from
// scratch; an existing file keeps every unrelated element untouched. When
// backup is true and the file already exists, its exact bytes are copied to
// path+".backup" before anything is written.
func Update(path, sdkName string, backup bool) (retErr error) {
	done := telemetry.StartSpan("miscxml.update", "path", path, "sdk", sdkName)
	defer func() {
		fields := []any{"status", "ok"}
		if retErr != nil {
			fields[1] = "error"
			fields = append(fields, "error", retErr.Error())
		}
		done(fields...)
	}()

	info, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotFile, path)
	}

	doc := etree.NewDocument()
	if exists {
		if err := doc.ReadFromFile(path); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		if doc.Root() == nil {
			return fmt.Errorf("%w: %s: no root element", ErrMalformed, path)
		}
	} else {
		root := doc.CreateElement(RootTag)
		root.CreateAttr("version", RootVersion)
	}

	// Backup only once the document is known to parse, so a malformed file
	// is rejected without leaving a stray .backup behind.
	if backup && exists {
		if err := writeBackup(path); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	applyInterpreter(doc.Root(), sdkName)
	ensureDeclaration(doc)
	doc.Indent(2)

	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CurrentInterpreter returns the project-jdk-name currently configured in the
// misc.xml at path. The second result is false when the file is missing, does
// not parse, or carries no ProjectRootManager component; a read-only probe
// never fails.
func CurrentInterpreter(path string) (string, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", false
	}
	root := doc.Root()
	if root == nil {
		return "", false
	}
	comp := findComponent(root)
	if comp == nil {
		return "", false
	}
	attr := comp.SelectAttr("project-jdk-name")
	if attr == nil {
		return "", false
	}
	return attr.Value, true
}

// Validate reports whether the misc.xml at path is safe to update. A missing
// file is fine (it will be created); an existing one must parse, have a
// <project> root and carry a version attribute.
func Validate(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return false
	}
	root := doc.Root()
	if root == nil || root.Tag != RootTag {
		return false
	}
	return root.SelectAttr("version") != nil
}

// SDKName builds the interpreter display string written into misc.xml for a
// Poetry environment.
func SDKName(environmentName string) string {
	return fmt.Sprintf("Poetry (%s)", environmentName)
}

func applyInterpreter(root *etree.Element, sdkName string) {
	comp := findComponent(root)
	if comp == nil {
		root.CreateComment(markerComment)
		comp = root.CreateElement(ComponentTag)
		comp.CreateAttr("name", ComponentName)
	}

	comp.CreateAttr("version", componentVer)
	comp.CreateAttr("languageLevel", languageLevel)
	comp.CreateAttr("project-jdk-name", sdkName)
	comp.CreateAttr("project-jdk-type", SDKType)

	if comp.SelectElement(outputTag) == nil {
		out := comp.CreateElement(outputTag)
		out.CreateAttr("url", outputURL)
	}
}

func findComponent(root *etree.Element) *etree.Element {
	for _, comp := range root.SelectElements(ComponentTag) {
		if comp.SelectAttrValue("name", "") == ComponentName {
			return comp
		}
	}
	return nil
}

// ensureDeclaration makes the UTF-8 XML declaration the first token of the
// document, replacing whatever declaration the file carried before.
func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			doc.RemoveChild(pi)
			break
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", xmlDeclaration))
}

func writeBackup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+BackupSuffix, data, 0644)
}
