package workers

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartInviteCleanupWorker sweeps expired challenge invite sessions once an
// hour. Expired rows are harmless for correctness (redemption checks
// expires_at) but the QR tokens should not pile up forever.
func StartInviteCleanupWorker(db *pgxpool.Pool) {
	ticker := time.NewTicker(1 * time.Hour)

	go func() {
		for range ticker.C {
			cleanupExpiredInvites(db)
		}
	}()
}

func cleanupExpiredInvites(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 24h grace period so a just-expired link still resolves to a clear
	// "expired" error instead of "not found".
	tag, err := db.Exec(ctx, `
		DELETE FROM challenge_invites
		WHERE expires_at < NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		log.Printf("Error cleaning up expired invites: %v", err)
		return
	}

	if tag.RowsAffected() > 0 {
		log.Printf("Deleted %d expired challenge invites", tag.RowsAffected())
	}
}
