package ledger

const (
	queryGetWallet = `
		SELECT user_id, points, balance, frozen_points, frozen_balance,
		       last_sign_in_day, sign_in_streak, version, created_at, updated_at
		FROM wallets
		WHERE user_id = ?`

	queryInsertWallet = `
		INSERT INTO wallets (user_id, points, balance, frozen_points, frozen_balance, last_sign_in_day, sign_in_streak, version)
		VALUES (?, 0, '0', 0, '0', '', 0, 1)`

	queryUpdateWallet = `
		UPDATE wallets
		SET points = ?, balance = ?, frozen_points = ?, frozen_balance = ?,
		    last_sign_in_day = ?, sign_in_streak = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	queryInsertTransaction = `
		INSERT INTO wallet_transactions (
			id, user_id, type, points_change, balance_change,
			points_after, balance_after, description, related_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, type, points_change, balance_change,
		       points_after, balance_after, description, related_id, created_at
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
)
