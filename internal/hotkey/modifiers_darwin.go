package hotkey

import "golang.design/x/hotkey"

var (
	modAlt = hotkey.ModOption
	modCmd = hotkey.ModCmd
)

var modifierSymbols = map[hotkey.Modifier]string{
	hotkey.ModCtrl:   "⌃",
	hotkey.ModShift:  "⇧",
	hotkey.ModOption: "⌥",
	hotkey.ModCmd:    "⌘",
}

// knownConflicts contains a list of known macOS shortcuts that might conflict
var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Input Source",
		Description: "Select the previous input source",
		Modifiers:   []hotkey.Modifier{hotkey.ModCtrl},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Force Quit",
		Description: "macOS Force Quit",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption},
		Key:         hotkey.KeyEscape,
	},
	{
		Name:        "Hide Others",
		Description: "Hide all other applications",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption},
		Key:         hotkey.KeyH,
	},
}
