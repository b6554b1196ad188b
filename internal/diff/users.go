package diff

import "github.com/tildaslashalef/chatmerge/internal/dataset"

// UserHasChanges reports whether slave carries information master lacks or contradicts.
// A field only counts when the slave value is non-empty, so a slave clearing a field
// is never a change.
func UserHasChanges(master, slave dataset.User) bool {
	changed := func(m, s string) bool { return s != "" && s != m }

	return changed(master.FirstName, slave.FirstName) ||
		changed(master.LastName, slave.LastName) ||
		changed(master.Username, slave.Username) ||
		changed(master.Phone, slave.Phone)
}

// BuildUsers reconciles master and slave user lists. Matched pairs come first in
// master order (NoChange or Change), then master-only users as Keep, then slave-only
// users in slave order: Add when the id is in active, DontAdd otherwise.
// masterByID is the full master user directory; a nil map is derived from master.
func BuildUsers(master, slave []dataset.UserRow, masterByID map[int64]dataset.User, active dataset.IDSet) Model[dataset.UserRow] {
	if masterByID == nil {
		masterByID = make(map[int64]dataset.User, len(master))
		for _, row := range master {
			masterByID[row.User.ID] = row.User
		}
	}

	slaveByID := make(map[int64]dataset.UserRow, len(slave))
	for _, row := range slave {
		if _, seen := slaveByID[row.User.ID]; !seen {
			slaveByID[row.User.ID] = row
		}
	}

	model := make(Model[dataset.UserRow], 0, len(master)+len(slave))
	var kept []dataset.UserRow

	for _, row := range master {
		other, ok := slaveByID[row.User.ID]
		if !ok {
			kept = append(kept, row)
			continue
		}

		base := row.User
		if known, ok := masterByID[row.User.ID]; ok {
			base = known
		}

		t := NoChange
		if UserHasChanges(base, other.User) {
			t = Change
		}
		model = append(model, Entry[dataset.UserRow]{
			Type:  t,
			Left:  Flat[dataset.UserRow]{row},
			Right: Flat[dataset.UserRow]{other},
		})
	}

	for _, row := range kept {
		model = append(model, Entry[dataset.UserRow]{
			Type:  Keep,
			Left:  Flat[dataset.UserRow]{row},
			Right: Empty[dataset.UserRow](),
		})
	}

	added := dataset.NewIDSet()
	for _, row := range slave {
		if _, known := masterByID[row.User.ID]; known || added.Has(row.User.ID) {
			continue
		}
		added.Add(row.User.ID)

		t := DontAdd
		if active.Has(row.User.ID) {
			t = Add
		}
		model = append(model, Entry[dataset.UserRow]{
			Type:  t,
			Left:  Empty[dataset.UserRow](),
			Right: Flat[dataset.UserRow]{row},
		})
	}

	return model
}
