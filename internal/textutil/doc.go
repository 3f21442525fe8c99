// Package textutil provides the small text normalizers shared by the parser
// and the session vocabulary.
//
//   - Fold lowercases and strips diacritics so "São Paulo" matches "sao paulo"
//   - StripMarkup removes HTML tags and inline markdown emphasis
//   - DecodeEntities replaces the fixed entity set seen in feed bodies
//   - CollapseSpaces squeezes whitespace runs to single spaces
package textutil
