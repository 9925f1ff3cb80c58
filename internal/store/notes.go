package store

// Dual note representations. Older rows carry a single legacy note (note +
// noteTimestamp); newer rows carry a notes array. Readers treat one legacy
// note as a one-element array; writers persist only the array form and clear
// the legacy fields. The migration is one-way: nothing converts an array back
// to the legacy shape.

// normalizedNotes synthesizes the display notes from either representation.
func normalizedNotes(note string, noteTimestamp *int, notes []VideoNote) []VideoNote {
	if len(notes) > 0 {
		return notes
	}
	if note == "" {
		return nil
	}
	return []VideoNote{{Text: note, Timestamp: noteTimestamp}}
}

// NormalizedNotes returns the video's notes for display, regardless of which
// representation the stored row uses.
func (v SessionVideo) NormalizedNotes() []VideoNote {
	return normalizedNotes(v.Note, v.NoteTimestamp, v.Notes)
}

// ReplaceNotes writes the array form and clears the legacy fields.
func (v *SessionVideo) ReplaceNotes(notes []VideoNote) {
	v.Notes = notes
	v.Note = ""
	v.NoteTimestamp = nil
}

// AppendNote migrates any legacy note into the array, then appends.
func (v *SessionVideo) AppendNote(note VideoNote) {
	v.ReplaceNotes(append(v.NormalizedNotes(), note))
}

// Normalize rewrites the video into the array representation.
func (v *SessionVideo) Normalize() {
	v.ReplaceNotes(v.NormalizedNotes())
}

func (rv ReferenceVideo) NormalizedNotes() []VideoNote {
	return normalizedNotes(rv.Note, rv.NoteTimestamp, rv.Notes)
}

func (rv *ReferenceVideo) ReplaceNotes(notes []VideoNote) {
	rv.Notes = notes
	rv.Note = ""
	rv.NoteTimestamp = nil
}
