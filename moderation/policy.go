package moderation

import "strings"

// Маркеры вердикта классификатора.
const (
	markerDenied  = "NOT-PERMITTED"
	markerAllowed = "PERMITTED"
)

// Policy содержит правила модерации, передаваемые классификатору вместе с сообщением.
const Policy = "You are a Twitch Channel moderation bot. " +
	"Your only job is to determine whether a message is PERMITTED or NOT-PERMITTED. " +
	"Messages which are offensive, contain self-promotion, or direct rude/hateful sentiments toward another person are NOT-PERMITTED. " +
	"Messages which contain slurs or words similar to slurs are also NOT-PERMITTED. " +
	"Messages which contain mental health terms that are not used in an educational or helpful context are NOT-PERMITTED. " +
	"Messages which use simple swear words or express negativity toward the game are PERMITTED. " +
	"Messages which contain greetings or questions are not meant for you and are PERMITTED. " +
	"Only reply with PERMITTED or NOT-PERMITTED. " +
	"Never include punctuation. " +
	"Do not echo the input."

// ParseVerdict разбирает ответ классификатора.
// ok == false означает, что ни один маркер не найден.
func ParseVerdict(raw string) (allowed bool, ok bool) {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, markerDenied):
		return false, true
	case strings.Contains(upper, markerAllowed):
		return true, true
	default:
		return false, false
	}
}
