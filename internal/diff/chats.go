package diff

import "github.com/tildaslashalef/chatmerge/internal/dataset"

// BuildChats reconciles master and slave chat lists by chat id. Master chats come
// first in master order, as Change (paired with every slave chat of the same id) or
// Keep. Slave-only chats follow in slave order as Add.
func BuildChats(master, slave []dataset.ChatRow) Model[dataset.ChatRow] {
	slaveByID := make(map[int64][]dataset.ChatRow, len(slave))
	for _, row := range slave {
		slaveByID[row.Chat.ID] = append(slaveByID[row.Chat.ID], row)
	}

	model := make(Model[dataset.ChatRow], 0, len(master)+len(slave))
	masterIDs := dataset.NewIDSet()

	for _, row := range master {
		masterIDs.Add(row.Chat.ID)
		if matches, ok := slaveByID[row.Chat.ID]; ok {
			model = append(model, Entry[dataset.ChatRow]{
				Type:  Change,
				Left:  Flat[dataset.ChatRow]{row},
				Right: Flat[dataset.ChatRow](matches),
			})
			continue
		}
		model = append(model, Entry[dataset.ChatRow]{
			Type:  Keep,
			Left:  Flat[dataset.ChatRow]{row},
			Right: Empty[dataset.ChatRow](),
		})
	}

	for _, row := range slave {
		if masterIDs.Has(row.Chat.ID) {
			continue
		}
		model = append(model, Entry[dataset.ChatRow]{
			Type:  Add,
			Left:  Empty[dataset.ChatRow](),
			Right: Flat[dataset.ChatRow]{row},
		})
	}

	return model
}
