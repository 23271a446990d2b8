package hotkey

import "golang.design/x/hotkey"

// Mod1 is Alt and Mod4 is Super on common X11 layouts
var (
	modAlt = hotkey.Mod1
	modCmd = hotkey.Mod4
)

var modifierSymbols = map[hotkey.Modifier]string{
	hotkey.ModCtrl:  "Ctrl+",
	hotkey.ModShift: "Shift+",
	hotkey.Mod1:     "Alt+",
	hotkey.Mod4:     "Super+",
}

// knownConflicts contains desktop shortcuts that might conflict
var knownConflicts = []ConflictInfo{
	{
		Name:        "Terminal",
		Description: "GNOME and Ubuntu open a terminal",
		Modifiers:   []hotkey.Modifier{hotkey.ModCtrl, hotkey.Mod1},
		Key:         hotkey.KeyT,
	},
	{
		Name:        "Input Source",
		Description: "Switch input source",
		Modifiers:   []hotkey.Modifier{hotkey.Mod4},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Log Out",
		Description: "Log out dialog",
		Modifiers:   []hotkey.Modifier{hotkey.ModCtrl, hotkey.Mod1},
		Key:         hotkey.KeyDelete,
	},
}
