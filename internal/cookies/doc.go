// Package cookies turns the raw cookie list captured after a consent
// action into the statistics reported per scenario: totals, first versus
// third party counts, and an optional model-assisted categorization.
package cookies
