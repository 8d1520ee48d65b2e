package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create boards table
			CREATE TABLE boards (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_boards_owner ON boards(owner);
			CREATE INDEX idx_boards_created_at ON boards(created_at);
			CREATE INDEX idx_boards_deleted_at ON boards(deleted_at);
		`,
		2: `
			-- Migration 2: flow snapshots, one per board
			CREATE TABLE board_flows (
				board_id VARCHAR(255) PRIMARY KEY REFERENCES boards(id) ON DELETE CASCADE,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				view_mode VARCHAR(20) NOT NULL DEFAULT 'business' CHECK (view_mode IN ('business', 'tech')),
				flow_inputs TEXT NOT NULL DEFAULT '',
				flow_outputs TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
		3: `
			-- Migration 3: password protected share links
			CREATE TABLE board_access_links (
				id VARCHAR(255) PRIMARY KEY,
				board_id VARCHAR(255) NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
				role VARCHAR(20) NOT NULL DEFAULT 'viewer' CHECK (role IN ('viewer', 'editor')),
				password_hash TEXT NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_board_access_links_board_id ON board_access_links(board_id);
		`,
	}
}
