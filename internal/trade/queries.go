package trade

const (
	queryInsertTrade = `
		INSERT INTO trade_requests (
			requester_id, target_item_id, offered_item_id, target_owner_id,
			message, status, trade_mode, estimated_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	tradeColumns = `
		id, requester_id, target_item_id, offered_item_id, target_owner_id,
		message, status, trade_mode, estimated_value, confirm_state,
		requester_tracking_no, target_tracking_no, requester_shipped_at, target_shipped_at,
		requester_deposit_paid, target_deposit_paid, version, created_at, updated_at`

	queryGetTrade = `
		SELECT ` + tradeColumns + `
		FROM trade_requests
		WHERE id = ?`

	queryListSent = `
		SELECT ` + tradeColumns + `
		FROM trade_requests
		WHERE requester_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryListReceived = `
		SELECT ` + tradeColumns + `
		FROM trade_requests
		WHERE target_owner_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryHasOpenRequest = `
		SELECT EXISTS(
			SELECT 1 FROM trade_requests
			WHERE requester_id = ? AND target_item_id = ? AND status IN ('PENDING', 'ACCEPTED')
		)`

	queryUpdateTrade = `
		UPDATE trade_requests
		SET status = ?, confirm_state = ?,
		    requester_tracking_no = ?, target_tracking_no = ?,
		    requester_shipped_at = ?, target_shipped_at = ?,
		    requester_deposit_paid = ?, target_deposit_paid = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryInsertDeposit = `
		INSERT INTO trade_deposits (id, trade_id, user_id, points_amount, cash_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetDepositForUser = `
		SELECT id, trade_id, user_id, points_amount, cash_amount, status, created_at, released_at
		FROM trade_deposits
		WHERE trade_id = ? AND user_id = ?`

	queryListDeposits = `
		SELECT id, trade_id, user_id, points_amount, cash_amount, status, created_at, released_at
		FROM trade_deposits
		WHERE trade_id = ?`

	querySetDepositStatus = `
		UPDATE trade_deposits
		SET status = ?, released_at = ?
		WHERE id = ?`
)
