package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySimpleQuickPrefix(t *testing.T) {
	require.Equal(t, SimpleQuick, Classify("open Safari"))
	require.Equal(t, SimpleQuick, Classify("launch Terminal"))
}

func TestClassifySimpleQuickVerb(t *testing.T) {
	require.Equal(t, SimpleQuick, Classify("click the submit button"))
	require.Equal(t, Standard, Classify("click the submit button and then fill the form"))
}

func TestClassifySimpleQuickNavigation(t *testing.T) {
	require.Equal(t, SimpleQuick, Classify("go to github.com"))
}

func TestClassifySimpleQuickShellPrefix(t *testing.T) {
	require.Equal(t, SimpleQuick, Classify("ls -la /tmp"))
}

func TestClassifyComplex(t *testing.T) {
	require.Equal(t, Complex, Classify("use swarm to research three topics simultaneously"))
	require.Equal(t, Complex, Classify("Do this in parallel across multiple agents"))
}

func TestClassifyComplexTakesPrecedence(t *testing.T) {
	require.Equal(t, Complex, Classify("open three browsers in parallel"))
}

func TestClassifyStandardFallback(t *testing.T) {
	require.Equal(t, Standard, Classify("write a detailed report summarizing last quarter's sales figures"))
}

func TestClassifySimpleQuickRequiresShortLength(t *testing.T) {
	long := "open a very long application name that goes on and on past the length limit for this predicate"
	require.Equal(t, Standard, Classify(long))
}
