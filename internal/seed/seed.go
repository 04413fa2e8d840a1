package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// defaultPassword is shared by all seeded accounts.
const defaultPassword = "password"

var firstNames = []string{
	"Ada", "Linus", "Grace", "Dennis", "Margaret", "Ken", "Barbara", "Rob",
	"Frances", "Donald", "Radia", "Brian", "Hedy", "Alan", "Katherine", "Tim",
}

var bios = []string{
	"hey there, I am using klatch",
	"probably typing",
	"coffee first",
	"here for the group chats",
	"",
}

// Users inserts count sample accounts, skipping usernames that already
// exist. All accounts share the same password so seeded environments are
// easy to log into.
func Users(ctx context.Context, st store.Store, count int, logger *zerolog.Logger) error {
	hash, err := auth.HashPassword(defaultPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	created := 0
	for i := 0; i < count; i++ {
		name := firstNames[i%len(firstNames)]
		username := fmt.Sprintf("%s%d", toUsername(name), rand.Intn(10000))

		if _, err := st.GetUserByUsername(ctx, username); err == nil {
			continue
		}

		bio := bios[rand.Intn(len(bios))]
		if _, err := st.CreateUser(ctx, username, name, bio, "", hash); err != nil {
			return fmt.Errorf("create seed user %q: %w", username, err)
		}
		created++
	}

	logger.Info().Int("created", created).Msg("seeded users")
	return nil
}

func toUsername(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
