// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package text

import (
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// 🔄 Rule is a single pattern and the literal text that replaces every match
type Rule struct {
	// Name identifies the rule in logs and reports
	Name string

	// Pattern is matched against the decoded file content
	Pattern *regexp.Regexp

	// Replacement is inserted verbatim, no $ expansion
	Replacement string
}

var defaultRules = []Rule{
	{
		Name:        "aspect-logo-href",
		Pattern:     regexp.MustCompile(`setHref\("http://www\.aspectsecurity\.com"\)`),
		Replacement: `setHref("https://www.aspectsecurity.com")`,
	},
	{
		Name:        "aspect-anchor-href",
		Pattern:     regexp.MustCompile(`<a href="http://www\.aspectsecurity\.com">`),
		Replacement: `<a href="https://www.aspectsecurity.com">`,
	},
}

// 📋 DefaultRules returns the built-in rule set, in application order.
// The returned slice is a copy and may be modified by the caller.
func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// 🔍 ValidateRules checks that every rule is usable and idempotent
func ValidateRules(rules []Rule) error {
	for i, rule := range rules {
		if rule.Name == "" {
			return errors.Errorf("rule %d: name is required", i)
		}
		if rule.Pattern == nil {
			return errors.Errorf("rule %d (%s): pattern is required", i, rule.Name)
		}
		if rule.Pattern.MatchString("") {
			return errors.Errorf("rule %d (%s): pattern matches empty input", i, rule.Name)
		}
		// a replacement the pattern matches again would keep changing files on every run
		if rule.Pattern.MatchString(rule.Replacement) {
			return errors.Errorf("rule %d (%s): replacement is matched by its own pattern", i, rule.Name)
		}
	}
	return nil
}
