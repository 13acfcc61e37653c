package world

import (
	"fmt"
	"sort"
	"strings"
)

// PotionType indexes the closed set of status effects. Wire packets
// carry the index, so the order is part of the protocol.
type PotionType int

const (
	PotionNone PotionType = iota
	PotionSpeed
	PotionLight
	PotionSwim
	PotionEnergy
	PotionRegen
	PotionHealth
	PotionTime
	PotionLava
	PotionShield
	PotionHaste
	potionTypeCount
)

var potionNames = [...]string{
	"none", "speed", "light", "swim", "energy", "regen",
	"health", "time", "lava", "shield", "haste",
}

func (t PotionType) String() string {
	if t < 0 || int(t) >= len(potionNames) {
		return "unknown"
	}
	return potionNames[t]
}

// potionDuration is the effect duration in ticks for timed effects.
const potionDuration = 4200

// ApplyPotion applies or removes a status effect on the player. An
// out-of-range type index is a reported failure.
func ApplyPotion(p *RemotePlayer, t PotionType, add bool) error {
	if t < PotionNone || t >= potionTypeCount {
		return fmt.Errorf("unknown potion type index %d", int(t))
	}
	if !add {
		delete(p.effects, t)
		p.SetUpdate("potioneffects", p.effectData())
		return nil
	}
	switch t {
	case PotionNone:
		// drinking the base potion has no effect
	case PotionHealth:
		p.SetHealth(p.Health() + 5)
	default:
		p.effects[t] = potionDuration
		p.SetUpdate("potioneffects", p.effectData())
	}
	return nil
}

// HasEffect reports whether the effect is currently active.
func (p *RemotePlayer) HasEffect(t PotionType) bool {
	_, ok := p.effects[t]
	return ok
}

// effectData serializes the active effects in type order, so repeated
// broadcasts of the same state produce the same bytes.
func (p *RemotePlayer) effectData() string {
	types := make([]PotionType, 0, len(p.effects))
	for t := range p.effects {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s_%d", t, p.effects[t])
	}
	return strings.Join(parts, ":")
}
