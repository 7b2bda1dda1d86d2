package kart

// Config is the kart loadout stored in a token's metadata extra field.
// Field order is the wire order of the encoded array and must not change.
type Config struct {
	_msgpack struct{} `msgpack:",as_array"`

	Version   uint8  `json:"version"`
	Level     uint32 `json:"level"`
	Left      uint8  `json:"left"`
	Right     uint8  `json:"right"`
	Top       uint8  `json:"top"`
	Front     uint8  `json:"front"`
	Skin      uint8  `json:"skin"`
	Transport uint8  `json:"transport"`
	Color1    uint32 `json:"color1"`
	Color2    uint32 `json:"color2"`
	Ex1       uint8  `json:"ex1"`
	Ex2       uint32 `json:"ex2"`
	Locked    bool   `json:"locked"`
	Decal1    string `json:"decal1"`
	Decal2    string `json:"decal2"`
	Decal3    string `json:"decal3"`
	Extra1    string `json:"extra1"`
	Extra2    string `json:"extra2"`
	Extra3    string `json:"extra3"`
}

// Category sizes. Indices in each category run from 0 to size-1.
const (
	NumDecals       = 7
	NumWeapons      = 6
	NumWeaponsMelee = 5
	NumShields      = 2
	NumSkins        = 4
	NumTransports   = 3

	// ShieldOffset separates shields from weapons in the left/right slots.
	ShieldOffset = 200

	// FreeDecal is unlocked for every kart at mint.
	FreeDecal = "7"
	// NoDecal marks an unset decal slot.
	NoDecal = "0"
)

// NewConfig returns an empty level 1 configuration.
func NewConfig() Config {
	return Config{Level: 1}
}

// ForMint discards the fields a minter is not allowed to choose.
func ForMint(c Config) Config {
	c.Version = 1
	c.Level = 1
	c.Ex1 = 0
	c.Ex2 = 0
	c.Locked = true
	c.Decal2 = ""
	c.Decal3 = ""
	c.Extra1 = FreeDecal
	c.Extra2 = ""
	c.Extra3 = ""
	return c
}

// equip copies the upgradeable loadout of candidate onto c.
func (c *Config) equip(candidate Config) {
	c.Color1 = candidate.Color1
	c.Decal1 = candidate.Decal1
	c.Front = candidate.Front
	c.Left = candidate.Left
	c.Right = candidate.Right
	c.Skin = candidate.Skin
	c.Transport = candidate.Transport
}

// ApplyEquipment copies the owner editable fields of candidate onto current:
// the upgradeable loadout plus the secondary color.
func ApplyEquipment(current, candidate Config) Config {
	next := current
	next.equip(candidate)
	next.Color2 = candidate.Color2
	return next
}

// ApplyUpgrade carries current forward with the upgradeable subset of
// candidate applied, one level higher and locked again.
func ApplyUpgrade(current, candidate Config) Config {
	next := current
	next.equip(candidate)
	next.Level = current.Level + 1
	next.Locked = true
	return next
}

// LevelUp raises the level by one and unlocks upgrades on every fifth level.
func (c *Config) LevelUp() {
	c.Level++
	if c.Level%5 == 0 {
		c.Locked = false
	}
}

// MaxIndex is the highest item index the given level may equip.
func MaxIndex(level uint32) uint8 {
	if level > 253 {
		return 255
	}
	return uint8(level + 2)
}
