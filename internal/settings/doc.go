/*
Package settings owns the popup configuration and its lifecycle.

Configuration values are coerced on every load and save so the selected
model, prompt and language always refer to something that exists. The
lifecycle is a small state machine:

	Uninitialized --Loaded(no key)--> SetupPending --SetupCompleted--> Ready
	Uninitialized --Loaded(key)-----> Ready --SettingsSaved--> Ready

Transition is pure. Machine wraps it with the side effects: reading and
writing extension storage and validating API keys against the model list.
*/
package settings
