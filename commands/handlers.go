package commands

import "strings"

// Handler реализует команду как чистую функцию: одинаковые аргументы дают одинаковый ответ.
type Handler func(args []string) string

const notImplemented = "Not yet implemented, please try again later!"

// Builtins возвращает встроенные обработчики по их идентификаторам.
func Builtins() map[string]Handler {
	return map[string]Handler{
		"echo":                  Echo,
		"about":                 About,
		"minecraftWhitelistAdd": MinecraftWhitelistAdd,
		"gpt":                   GPT,
		"claude":                Claude,
	}
}

// Echo повторяет аргументы через пробел.
func Echo(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	return `An argument was not provided! Usage: "!echo hello world"`
}

// About рассказывает о боте.
func About([]string) string {
	return "Hi! I'm Icarus, a chatbot built by @pr3sidia.\n" +
		"I'm capable of simple and advanced programmatic commands.\n" +
		"Run `!help` to see what I can do!"
}

// MinecraftWhitelistAdd пока только подтверждает ник игрока.
func MinecraftWhitelistAdd(args []string) string {
	return strings.Join(args, " ")
}

// GPT и Claude зарезервированы под ответы LLM.
func GPT([]string) string { return notImplemented }

func Claude([]string) string { return notImplemented }
