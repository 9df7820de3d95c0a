// Package contentfilter classifies and sanitizes outbound notification text.
//
// Sanitization and risk scoring are independent: markup (script blocks,
// event handlers, javascript: protocols, residual tags, null bytes, control
// sequences) is always stripped, while flagged words are never rewritten,
// only reported. Risk is scored on a four-level scale; profanity escalates
// to High and suspicious links to Critical, both marking the content
// invalid. Matching runs against an NFKC-normalized lowercase shadow of the
// text so fullwidth and compatibility lookalikes cannot slip past the rules.
//
//	filter := contentfilter.New()
//	res := filter.Check("check out https://bit.ly/xk2")
//	// res.Valid == false, res.Risk == contentfilter.RiskCritical
//
// Default rule lists are intentionally small; production deployments load
// their own via Options or a YAML rules file.
package contentfilter
