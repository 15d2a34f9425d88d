package badger

import (
	"fmt"
	"strings"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// Key prefixes for different data types
const (
	articleRecordPrefix      = "artrec"
	articleFingerprintPrefix = "artfpr"
	articleIDSeq             = "artseq"
	vectorRecordPrefix       = "vecrec"
	vectorDimPrefix          = "vecdim"
	storyRecordPrefix        = "storec"
	storyMemberPrefix        = "stomem"
	entityRecordPrefix       = "entrec"
	impactRecordPrefix       = "imprec"
)

// makeArticleKey generates a key for an article by ID.
func makeArticleKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", articleRecordPrefix, id))
}

// makeFingerprintKey generates a key for the content fingerprint index.
func makeFingerprintKey(fingerprint core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", articleFingerprintPrefix, fingerprint))
}

// makeVectorKey generates a key for a vector by (namespace, article ID).
// Format: prefix:namespace:articleID
func makeVectorKey(namespace string, articleID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", vectorRecordPrefix, namespace, articleID))
}

// validateNamespace rejects namespaces that cannot form an unambiguous key
// segment. A ":" inside a namespace would make its keys match another
// namespace's scan prefix.
func validateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace is empty", storage.ErrInvalidNamespace)
	}
	if strings.Contains(namespace, ":") {
		return fmt.Errorf("%w: %q contains %q", storage.ErrInvalidNamespace, namespace, ":")
	}
	return nil
}

// makeVectorNamespacePrefix generates the scan prefix for one namespace.
func makeVectorNamespacePrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorRecordPrefix, namespace))
}

// makeVectorDimKey generates the key holding a namespace's pinned dimension.
func makeVectorDimKey(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s", vectorDimPrefix, namespace))
}

// makeStoryKey generates a key for a story by ID.
func makeStoryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", storyRecordPrefix, id))
}

// makeStoryMemberKey generates a key for the article→story membership index.
func makeStoryMemberKey(articleID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", storyMemberPrefix, articleID))
}

// makeEntityKey generates a key for an article's entity tags.
func makeEntityKey(articleID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entityRecordPrefix, articleID))
}

// makeImpactKey generates a key for an article's impact report.
func makeImpactKey(articleID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", impactRecordPrefix, articleID))
}
