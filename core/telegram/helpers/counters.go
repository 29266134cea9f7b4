package helpers

import tele "gopkg.in/telebot.v4"

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
	keyAnswered = "cb_answered"
)

// ResetCounters clears the per-update outbound counters.
func ResetCounters(c tele.Context) {
	c.Set(keyMessages, 0)
	c.Set(keyKeyboard, false)
}

// Counters reports how many outbound messages the update produced and whether any carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return n, kb
}

func countOutbound(c tele.Context, opts *tele.SendOptions) {
	n, _ := c.Get(keyMessages).(int)
	c.Set(keyMessages, n+1)
	if opts != nil && opts.ReplyMarkup != nil {
		c.Set(keyKeyboard, true)
	}
}

// Answer responds to the pending callback query and remembers that it did.
func Answer(c tele.Context, resp *tele.CallbackResponse) error {
	if c.Callback() == nil {
		return nil
	}
	c.Set(keyAnswered, true)
	return c.Respond(resp)
}

// Answered reports whether Answer was called for the current update.
func Answered(c tele.Context) bool {
	ok, _ := c.Get(keyAnswered).(bool)
	return ok
}
