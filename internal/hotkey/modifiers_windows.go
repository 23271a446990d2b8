package hotkey

import "golang.design/x/hotkey"

var (
	modAlt = hotkey.ModAlt
	modCmd = hotkey.ModWin
)

var modifierSymbols = map[hotkey.Modifier]string{
	hotkey.ModCtrl:  "Ctrl+",
	hotkey.ModShift: "Shift+",
	hotkey.ModAlt:   "Alt+",
	hotkey.ModWin:   "Win+",
}

// knownConflicts contains Windows shortcuts that might conflict
var knownConflicts = []ConflictInfo{
	{
		Name:        "Input Language",
		Description: "Switch keyboard layout",
		Modifiers:   []hotkey.Modifier{hotkey.ModWin},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Security Screen",
		Description: "Ctrl+Alt+Delete",
		Modifiers:   []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModAlt},
		Key:         hotkey.KeyDelete,
	},
}
