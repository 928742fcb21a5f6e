package pipeline

// EnglishStopWords returns the default English stop-word exclusion list
// used by the vectorizer. Callers may extend or replace it via config.
func EnglishStopWords() []string {
	return []string{
		"a", "about", "above", "after", "again", "against", "all", "also",
		"am", "an", "and", "any", "are", "as", "at", "back", "be", "because",
		"been", "before", "being", "below", "between", "both", "but", "by",
		"can", "cannot", "could", "did", "do", "does", "doing", "down",
		"during", "each", "even", "few", "first", "for", "from", "further",
		"get", "had", "has", "have", "having", "he", "her", "here", "hers",
		"herself", "him", "himself", "his", "how", "if", "in", "into", "is",
		"it", "its", "itself", "just", "last", "like", "made", "make",
		"many", "may", "me", "might", "more", "most", "much", "must", "my",
		"myself", "new", "no", "nor", "not", "now", "of", "off", "on",
		"once", "one", "only", "or", "other", "our", "ours", "ourselves",
		"out", "over", "own", "per", "said", "same", "say", "says", "she",
		"should", "since", "so", "some", "still", "such", "than", "that",
		"the", "their", "theirs", "them", "themselves", "then", "there",
		"these", "they", "this", "those", "through", "to", "too", "under",
		"until", "up", "upon", "us", "very", "via", "was", "we", "were",
		"what", "when", "where", "which", "while", "who", "whom", "why",
		"will", "with", "would", "you", "your", "yours", "yourself",
		"yourselves",
	}
}
