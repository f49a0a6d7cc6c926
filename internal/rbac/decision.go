// AngelaMos | 2026
// decision.go

package rbac

// Rule identifies the first check an action failed. Checks run in a fixed
// order (existence, self-action, role floor, role-specific exceptions) so the
// same input always reports the same rule.
type Rule string

const (
	RuleActorNotMember    Rule = "ACTOR_NOT_MEMBER"
	RuleTargetNotMember   Rule = "TARGET_NOT_MEMBER"
	RuleSelfAction        Rule = "SELF_ACTION"
	RuleInsufficientRole  Rule = "INSUFFICIENT_ROLE"
	RuleOwnerImmutable    Rule = "OWNER_IMMUTABLE"
	RuleAdminOnAdmin      Rule = "ADMIN_ON_ADMIN"
	RuleOwnerGrantsOwner  Rule = "OWNER_GRANTS_OWNER"
	RuleOwnerGrantsAdmin  Rule = "OWNER_GRANTS_ADMIN"
	RuleOwnerAddForbidden Rule = "OWNER_ADD_FORBIDDEN"
)

type Decision struct {
	Allowed bool
	Rule    Rule
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(rule Rule, reason string) Decision {
	return Decision{Rule: rule, Reason: reason}
}
