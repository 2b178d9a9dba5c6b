package board

// UpdateSettings swaps the document settings wholesale.
type UpdateSettings struct {
	doc         *DocStore
	oldSettings Settings
	newSettings Settings
}

// NewUpdateSettings creates the command from before/after snapshots.
func NewUpdateSettings(doc *DocStore, oldSettings, newSettings Settings) *UpdateSettings {
	return &UpdateSettings{doc: doc, oldSettings: oldSettings, newSettings: newSettings}
}

func (c *UpdateSettings) Execute() { c.set(c.newSettings) }
func (c *UpdateSettings) Undo()    { c.set(c.oldSettings) }

func (c *UpdateSettings) set(s Settings) {
	c.doc.Update(func(st State) State {
		st.Settings = s
		return st
	})
}
