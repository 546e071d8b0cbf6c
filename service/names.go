package service

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

var (
	nameAdjectives = []string{"Brave", "Calm", "Clever", "Eager", "Gentle", "Happy", "Jolly", "Kind", "Lucky", "Mighty", "Quiet", "Swift"}
	nameAnimals    = []string{"Badger", "Falcon", "Fox", "Heron", "Koala", "Lynx", "Otter", "Panda", "Raven", "Tiger", "Walrus", "Wolf"}
)

// RandomDisplayName returns a name like "Swift Otter 3f9a" for register_user
func RandomDisplayName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return nameAdjectives[rand.IntN(len(nameAdjectives))] + " " +
		nameAnimals[rand.IntN(len(nameAnimals))] + " " + suffix
}
