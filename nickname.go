package users

import (
	"fmt"
	"math/rand/v2"
)

var nicknameAdjectives = []string{
	"clever", "jolly", "brave", "quiet", "eager",
	"gentle", "swift", "bright", "calm", "witty",
}

var nicknameAnimals = []string{
	"fox", "owl", "panda", "otter", "lynx",
	"heron", "badger", "falcon", "wolf", "seal",
}

// GenerateNickname produces a readable handle like "clever_fox_123". The
// registration flow retries on collision since uniqueness is enforced by the
// directory, not here.
func GenerateNickname() string {
	return fmt.Sprintf("%s_%s_%d",
		nicknameAdjectives[rand.IntN(len(nicknameAdjectives))],
		nicknameAnimals[rand.IntN(len(nicknameAnimals))],
		rand.IntN(1000),
	)
}
