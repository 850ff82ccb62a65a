// Package engineconfig edits the engine settings document in a project,
// currently only the CC_DEBUG custom macro.
package engineconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// DebugMacro is the macro toggled by SetDebugMacro.
const DebugMacro = "CC_DEBUG"

// ErrEngineConfigMissing is returned when the settings file does not exist.
// Callers treat it as a skip; a fresh project has no settings yet.
var ErrEngineConfigMissing = errors.New("engine settings not found")

// Action describes what SetDebugMacro did.
type Action string

const (
	ActionAdded     Action = "added"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// Change reports the outcome of an edit.
type Change struct {
	Path   string
	Action Action
	Value  bool
}

// SetDebugMacro sets CC_DEBUG in the macroCustom array of the JSON document at
// path, appending the entry when absent. Output is indented with two spaces and
// object keys are sorted, so repeated calls with the same value are byte-stable.
func SetDebugMacro(path string, debug bool) (Change, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Change{}, fmt.Errorf("%w: %s", ErrEngineConfigMissing, path)
		}
		return Change{}, fmt.Errorf("read engine settings: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Change{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	action, err := setMacro(doc, DebugMacro, debug)
	if err != nil {
		return Change{}, fmt.Errorf("%s: %w", path, err)
	}

	out, err := encode(doc)
	if err != nil {
		return Change{}, err
	}
	if action == ActionUpdated && bytes.Equal(out, raw) {
		action = ActionUnchanged
	}
	if err := writeAtomic(path, out); err != nil {
		return Change{}, err
	}
	slog.Info("Engine macro set", slog.String("macro", DebugMacro), slog.Bool("value", debug),
		slog.String("action", string(action)), logfields.Path(path))
	return Change{Path: path, Action: action, Value: debug}, nil
}

func setMacro(doc map[string]any, key string, value bool) (Action, error) {
	var list []any
	switch v := doc["macroCustom"].(type) {
	case nil:
	case []any:
		list = v
	default:
		return "", fmt.Errorf("macroCustom is %T, want array", v)
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if entry["key"] == key {
			if prev, ok := entry["value"].(bool); ok && prev == value {
				entry["value"] = value
				return ActionUnchanged, nil
			}
			entry["value"] = value
			return ActionUpdated, nil
		}
	}
	doc["macroCustom"] = append(list, map[string]any{"key": key, "value": value})
	return ActionAdded, nil
}

func encode(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode engine settings: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write engine settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write engine settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write engine settings: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write engine settings: %w", err)
	}
	return nil
}
