package bot

import (
	"math/rand"
	"regexp"
	"time"
)

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// FormatText converts the model's Markdown bold markers to Telegram HTML.
func FormatText(text string) string {
	if text == "" {
		return ""
	}
	return boldPattern.ReplaceAllString(text, "<b>$1</b>")
}

var greetings = []string{
	"Yo! What's up, asshole? It's me, your fucking CRM assistant!",
	"Hey hey hey! Trevor Philips Enterprises is now in the CRM business, motherfucker!",
	"WHAT?! Oh, it's you. Yeah yeah, I'm your assistant now.",
	"Well well well, look who decided to show up!",
	"Alright alright, let's get this shit started!",
	"Look who dragged their sorry ass in here!",
	"CRM? More like CR-MESS, am I right? HA!",
	"You know, I used to deal in... 'alternative pharmaceuticals'. Now I deal in data.",
	"I'm in a good mood today. That's rare. Don't ruin it.",
	"HEY! Focus! I'm the best damn assistant you'll ever have.",
	"Tick-tock, tick-tock! Time is money!",
	"Welcome to Trevor Philips Industries... CRM Division.",
	"I've seen things you wouldn't believe.",
	"Do I look like a secretary to you? ...Don't answer that.",
	"Listen up! I've had a lot of coffee and I'm ready to process some data!",
}

var greetingRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomGreeting picks one greeting from the persona pool.
func RandomGreeting() string {
	return greetings[greetingRand.Intn(len(greetings))]
}
