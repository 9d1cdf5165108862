package database

const (
	queryInsertUser = `
		INSERT INTO users (username, email, credit_score) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, username, email, credit_score, created_at, updated_at
		FROM users
		WHERE id = ?`

	querySetCreditScore = `
		UPDATE users
		SET credit_score = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryInsertItem = `
		INSERT INTO items (title, description, owner_id, status) VALUES (?, ?, ?, ?)`

	queryGetItemById = `
		SELECT id, title, description, owner_id, status,
		       previous_owner_id, traded_for_item_id, traded_at, created_at, updated_at
		FROM items
		WHERE id = ?`

	queryListItemsByOwner = `
		SELECT id, title, description, owner_id, status,
		       previous_owner_id, traded_for_item_id, traded_at, created_at, updated_at
		FROM items
		WHERE owner_id = ?
		ORDER BY created_at DESC`

	querySetItemStatus = `
		UPDATE items
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryTransferItem = `
		UPDATE items
		SET owner_id = ?, previous_owner_id = ?, traded_for_item_id = ?,
		    traded_at = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)
