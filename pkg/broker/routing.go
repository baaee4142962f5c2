package broker

import (
	"sort"
	"strings"
)

// DeadLetterPrefix is prepended to the routing key of dead-lettered messages.
const DeadLetterPrefix = "dlq."

func TopicName(exchange, routingKey string) string {
	return exchange + "." + routingKey
}

// RoutingKey strips the exchange prefix from topic. Topics outside the
// exchange return ok=false.
func RoutingKey(exchange, topic string) (string, bool) {
	prefix := exchange + "."
	if !strings.HasPrefix(topic, prefix) || len(topic) == len(prefix) {
		return "", false
	}
	return topic[len(prefix):], true
}

func IsWildcard(bindingKey string) bool {
	for _, w := range strings.Split(bindingKey, ".") {
		if w == "*" || w == "#" {
			return true
		}
	}
	return false
}

// MatchBindingKey reports whether routingKey matches an AMQP topic binding:
// "*" stands for exactly one word, "#" for zero or more.
func MatchBindingKey(bindingKey, routingKey string) bool {
	return matchWords(strings.Split(bindingKey, "."), strings.Split(routingKey, "."))
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}

	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchWords(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}

// ResolveTopics maps binding keys to concrete topics. Literal keys always
// resolve to their topic; wildcard keys match the existing topics of the
// exchange, skipping dead-letter topics unless the key names them.
func ResolveTopics(exchange string, bindingKeys, existing []string) []string {
	seen := make(map[string]struct{})

	for _, key := range bindingKeys {
		if !IsWildcard(key) {
			seen[TopicName(exchange, key)] = struct{}{}
			continue
		}

		wantDLQ := strings.HasPrefix(key, DeadLetterPrefix)
		for _, topic := range existing {
			rk, ok := RoutingKey(exchange, topic)
			if !ok {
				continue
			}
			if strings.HasPrefix(rk, DeadLetterPrefix) && !wantDLQ {
				continue
			}
			if MatchBindingKey(key, rk) {
				seen[topic] = struct{}{}
			}
		}
	}

	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
