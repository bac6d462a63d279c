package suggest

import (
	"fmt"

	"github.com/renderlens/renderlens/internal/collector"
)

// Thresholds below encode the domain heuristics the catalog was tuned
// against. Changing them changes detection behavior, not just cosmetics.
const (
	memoMinRenders          = 10
	memoMinUnnecessaryRatio = 0.5

	expensiveAvgMs      = 16.0
	expensiveMinRenders = 5
	expensiveCriticalMs = 50.0

	callbackMinRenders = 15

	subscriptionMinRenders       = 20
	subscriptionUnnecessaryShare = 0.7

	statePlacementMinRenders = 30
	statePlacementMinChain   = 3

	extractionMinRenders = 50
	extractionAvgMs      = 5.0
)

// BuiltinRules returns the built-in rule catalog in registration order
func BuiltinRules() []Rule {
	return []Rule{
		memoizationRule(),
		expensiveComputationRule(),
		unstableCallbackRule(),
		overSubscriptionRule(),
		statePlacementRule(),
		extractionRule(),
	}
}

// memoizationRule matches components that re-render frequently without any
// observed prop change, with at least half the renders unnecessary.
func memoizationRule() Rule {
	return Rule{
		ID:       "memoization",
		Kind:     FixMemoization,
		Priority: 1,
		Predicate: func(s collector.ComponentStats) bool {
			return s.Renders >= memoMinRenders &&
				s.UnnecessaryRatio() >= memoMinUnnecessaryRatio &&
				!s.HadPropChanges
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			wastedMs := float64(s.UnnecessaryRenders) * s.AverageDuration
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixMemoization,
				Severity:      collector.SeverityWarning,
				Issue: fmt.Sprintf("%s rendered %d times; %d of those renders (%.0f%%) produced no visible change",
					s.Name, s.Renders, s.UnnecessaryRenders, s.UnnecessaryRatio()*100),
				Cause:      "the parent re-renders and passes identical props, so every parent update re-renders this component for nothing",
				CodeBefore: fmt.Sprintf("export function %s(props) {\n  return <div>{props.value}</div>;\n}", s.Name),
				CodeAfter:  fmt.Sprintf("export const %s = React.memo(function %s(props) {\n  return <div>{props.value}</div>;\n});", s.Name, s.Name),
				Explanation: "wrapping the component in React.memo makes it skip renders whenever its props are shallow-equal to the previous ones",
				EstimatedImpact: fmt.Sprintf("skips ~%d renders, saving ~%.1fms of render work",
					s.UnnecessaryRenders, wastedMs),
			}
		},
	}
}

// expensiveComputationRule matches components whose average render exceeds
// a frame budget. Escalates to Critical when the average is pathological.
func expensiveComputationRule() Rule {
	return Rule{
		ID:       "expensive-computation",
		Kind:     FixExpensiveComputation,
		Priority: 2,
		Predicate: func(s collector.ComponentStats) bool {
			return s.AverageDuration > expensiveAvgMs && s.Renders >= expensiveMinRenders
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			severity := collector.SeverityWarning
			if s.AverageDuration > expensiveCriticalMs {
				severity = collector.SeverityCritical
			}
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixExpensiveComputation,
				Severity:      severity,
				Issue: fmt.Sprintf("%s averages %.1fms per render over %d renders, above the 16ms frame budget",
					s.Name, s.AverageDuration, s.Renders),
				Cause:      "heavy computation runs on every render instead of being cached between renders",
				CodeBefore: fmt.Sprintf("function %s({ items }) {\n  const sorted = items.slice().sort(expensiveCompare);\n  return <List items={sorted} />;\n}", s.Name),
				CodeAfter:  fmt.Sprintf("function %s({ items }) {\n  const sorted = useMemo(\n    () => items.slice().sort(expensiveCompare),\n    [items],\n  );\n  return <List items={sorted} />;\n}", s.Name),
				Explanation: "useMemo caches the computed value until its inputs change, keeping repeat renders inside the frame budget",
				EstimatedImpact: fmt.Sprintf("reduces per-render cost from %.1fms toward the 16ms budget (%.1fms total so far)",
					s.AverageDuration, s.TotalDuration),
			}
		},
	}
}

// unstableCallbackRule matches components whose props keep changing across
// many renders, a signature of identity-unstable callbacks or objects.
func unstableCallbackRule() Rule {
	return Rule{
		ID:       "unstable-callback",
		Kind:     FixUnstableCallback,
		Priority: 3,
		Predicate: func(s collector.ComponentStats) bool {
			return s.Renders >= callbackMinRenders && s.HadPropChanges
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixUnstableCallback,
				Severity:      collector.SeverityWarning,
				Issue: fmt.Sprintf("%s re-rendered %d times with changed props on each pass",
					s.Name, s.Renders),
				Cause:      "a callback or object prop is recreated by the parent on every render, so the prop identity never stays stable",
				CodeBefore: fmt.Sprintf("<%s onSelect={(id) => setSelected(id)} />", s.Name),
				CodeAfter:  fmt.Sprintf("const handleSelect = useCallback(\n  (id) => setSelected(id),\n  [],\n);\n\n<%s onSelect={handleSelect} />", s.Name),
				Explanation: "useCallback keeps the function identity stable between renders, so memoized children see unchanged props",
				EstimatedImpact: fmt.Sprintf("stabilizing the prop can eliminate up to %d re-renders (~%.1fms)",
					s.Renders-1, float64(s.Renders-1)*s.AverageDuration),
			}
		},
	}
}

// overSubscriptionRule matches components that render constantly with
// neither prop nor state changes: they are subscribed to updates they do
// not use.
func overSubscriptionRule() Rule {
	return Rule{
		ID:       "over-subscription",
		Kind:     FixOverSubscription,
		Priority: 4,
		Predicate: func(s collector.ComponentStats) bool {
			return s.Renders >= subscriptionMinRenders &&
				float64(s.UnnecessaryRenders) > subscriptionUnnecessaryShare*float64(s.Renders) &&
				!s.HadPropChanges && !s.HadStateChanges
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixOverSubscription,
				Severity:      collector.SeverityCritical,
				Issue: fmt.Sprintf("%s rendered %d times without a single prop or state change; %d renders were unnecessary",
					s.Name, s.Renders, s.UnnecessaryRenders),
				Cause:      "the component subscribes to a broad context or store and re-renders on every publish, even for fields it never reads",
				CodeBefore: fmt.Sprintf("function %s() {\n  const store = useContext(AppContext);\n  return <span>{store.user.name}</span>;\n}", s.Name),
				CodeAfter:  fmt.Sprintf("function %s() {\n  const userName = useAppSelector(\n    (store) => store.user.name,\n  );\n  return <span>{userName}</span>;\n}", s.Name),
				Explanation: "a selector-based subscription re-renders only when the selected slice changes, instead of on every store update",
				EstimatedImpact: fmt.Sprintf("removes ~%d subscription-driven renders (~%.1fms)",
					s.UnnecessaryRenders, float64(s.UnnecessaryRenders)*s.AverageDuration),
			}
		},
	}
}

// statePlacementRule matches stateful components sitting at the top of a
// deep render cascade.
func statePlacementRule() Rule {
	return Rule{
		ID:       "state-placement",
		Kind:     FixStatePlacement,
		Priority: 5,
		Predicate: func(s collector.ComponentStats) bool {
			return s.Renders >= statePlacementMinRenders &&
				len(s.Chain) >= statePlacementMinChain &&
				s.HadStateChanges
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixStatePlacement,
				Severity:      collector.SeverityCritical,
				Issue: fmt.Sprintf("state changes in %s cascade through a %d-component chain (%d renders so far)",
					s.Name, len(s.Chain), s.Renders),
				Cause:      "state lives too high in the tree, so every update re-renders the whole subtree below it",
				CodeBefore: fmt.Sprintf("function %s() {\n  const [query, setQuery] = useState('');\n  return (\n    <>\n      <SearchBox value={query} onChange={setQuery} />\n      <HeavySubtree />\n    </>\n  );\n}", s.Name),
				CodeAfter:  fmt.Sprintf("function %s() {\n  return (\n    <>\n      <SearchSection /> {/* query state moved inside */}\n      <HeavySubtree />\n    </>\n  );\n}", s.Name),
				Explanation: "moving the state down to the component that actually uses it shrinks the re-rendered subtree to just that branch",
				EstimatedImpact: fmt.Sprintf("limits each update to 1 component instead of %d chain members",
					len(s.Chain)),
			}
		},
	}
}

// extractionRule matches hot components that are also non-trivially
// expensive: prime candidates for splitting.
func extractionRule() Rule {
	return Rule{
		ID:       "extraction",
		Kind:     FixExtraction,
		Priority: 6,
		Predicate: func(s collector.ComponentStats) bool {
			return s.Renders >= extractionMinRenders && s.AverageDuration > extractionAvgMs
		},
		Generate: func(s collector.ComponentStats) FixSuggestion {
			return FixSuggestion{
				ComponentName: s.Name,
				Kind:          FixExtraction,
				Severity:      collector.SeverityWarning,
				Issue: fmt.Sprintf("%s rendered %d times at %.1fms on average; the whole component re-renders for every change",
					s.Name, s.Renders, s.AverageDuration),
				Cause:      "frequently changing parts and stable expensive parts live in the same component, so both re-render together",
				CodeBefore: fmt.Sprintf("function %s() {\n  // ticker + chart re-render together\n  return (\n    <>\n      <LiveTicker />\n      <ExpensiveChart />\n    </>\n  );\n}", s.Name),
				CodeAfter:  fmt.Sprintf("function %s() {\n  return (\n    <>\n      <LiveTickerSection /> {/* isolated updates */}\n      <MemoizedExpensiveChart />\n    </>\n  );\n}", s.Name),
				Explanation: "extracting the volatile part into its own component confines frequent updates to the cheap branch",
				EstimatedImpact: fmt.Sprintf("avoids re-running ~%.1fms of stable render work on each of the ~%d updates",
					s.AverageDuration, s.Renders),
			}
		},
	}
}
