// Package coords loads the screen-coordinate map that defines the UI contract
// with the target application. Coordinates are recorded externally and
// supplied as a JSON file; every named action must be present and non-zero
// before any processing starts.
package coords

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Point is a screen position in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Set maps a named UI action to its screen position.
type Set map[string]Point

// Required lists every action name the workflow clicks or types against.
var Required = []string{
	"dni_input",
	"first_result",
	"copy_name_menu",
	"right_click_address",
	"select_all_menu",
	"right_click_copy",
	"copy_menu",
	"close_btn",
	"reconnect_click",
	"popup_right_click",
	"popup_copy_menu",
	"btn_house",
}

// Load reads and validates a coordinates file. It fails if the file is
// missing, malformed, or any required action is absent or zero-valued, so
// an incomplete recording is caught before the first UI action.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coordinates file: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse coordinates file %s: %w", path, err)
	}

	if missing := set.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("coordinates file %s incomplete, missing or zero: %s",
			path, strings.Join(missing, ", "))
	}
	return set, nil
}

// Missing returns the required action names that are absent or zero-valued.
func (s Set) Missing() []string {
	var missing []string
	for _, key := range Required {
		p, ok := s[key]
		if !ok || p.X == 0 || p.Y == 0 {
			missing = append(missing, key)
		}
	}
	return missing
}

// Get returns the position for a validated action name. The set is validated
// at load time, so a miss here is a programming error.
func (s Set) Get(name string) Point {
	p, ok := s[name]
	if !ok {
		panic(fmt.Sprintf("coords: unknown action %q", name))
	}
	return p
}
