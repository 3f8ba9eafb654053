package planner

import "github.com/tomokana225/schedule-planning/internal/dateutil"

type messages struct {
	welcome      string
	acknowledged string
	apology      string
}

var localized = map[dateutil.Locale]messages{
	dateutil.LocaleJapanese: {
		welcome:      "こんにちは！AIアシスタントのOptiPlanです。スケジュールの調整や、空き時間の有効活用についてお手伝いします。「今のスケジュールで1時間勉強できる時間は？」のように聞いてみてください。",
		acknowledged: "承知いたしました。",
		apology:      "すみません、エラーが発生しました。もう一度お試しください。",
	},
	dateutil.LocaleEnglish: {
		welcome:      "Hi! I'm OptiPlan, your scheduling assistant. I can help you rearrange your schedule and make good use of free time. Try asking \"When can I fit in an hour of study?\"",
		acknowledged: "Understood.",
		apology:      "Sorry, something went wrong. Please try again.",
	},
}

func messagesFor(l dateutil.Locale) messages {
	if m, ok := localized[l]; ok {
		return m
	}
	return localized[dateutil.LocaleEnglish]
}
