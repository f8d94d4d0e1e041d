package formatting

import (
	"saptunectl/internal/app"
	"saptunectl/internal/engine"
)

// The document types below are the machine readable shapes shared by the
// JSON and YAML formatters.

type notesDocument struct {
	Notes []string `json:"notes"`
	Count int      `json:"count"`
}

type solutionEntry struct {
	ID    string   `json:"id"`
	Notes []string `json:"notes"`
}

type solutionsDocument struct {
	Solutions []solutionEntry `json:"solutions"`
	Count     int             `json:"count"`
}

type resultDocument struct {
	*app.Result
	Commands []string `json:"commands"`
	Message  string   `json:"message"`
}

type historyDocument struct {
	Runs  []app.Result `json:"runs"`
	Count int          `json:"count"`
}

func newNotesDocument(inv engine.Inventory) notesDocument {
	notes := inv.Notes()
	return notesDocument{Notes: notes, Count: len(notes)}
}

func newSolutionsDocument(inv engine.Inventory) solutionsDocument {
	ids := inv.Solutions()
	doc := solutionsDocument{Solutions: make([]solutionEntry, 0, len(ids)), Count: len(ids)}
	for _, id := range ids {
		notes := inv.SolutionNotes(id)
		if notes == nil {
			notes = []string{}
		}
		doc.Solutions = append(doc.Solutions, solutionEntry{ID: id, Notes: notes})
	}
	return doc
}

func newResultDocument(result *app.Result) resultDocument {
	commands := result.Plan.Commands()
	lines := make([]string, len(commands))
	for i, c := range commands {
		lines[i] = c.String()
	}
	return resultDocument{Result: result, Commands: lines, Message: result.Message()}
}

func newHistoryDocument(records []app.Result) historyDocument {
	if records == nil {
		records = []app.Result{}
	}
	return historyDocument{Runs: records, Count: len(records)}
}
