package rbac

// Default policy for the portal. Mentors run MCAMP cohorts and grade
// essay questions; students consume content.
var RolePermissions = map[string][]string{
	"student": {
		"resource:view",
		"progress:write",
		"progress:view-own",
		"quiz:take",
		"attempt:view-own",
		"cohort:view",
		"store:order",
		"account:manage",
		"assist:ask",
	},
	"mentor": {
		"resource:view",
		"resource:manage",
		"quiz:take",
		"quiz:manage",
		"attempt:view-all",
		"attempt:grade",
		"cohort:view",
		"cohort:manage",
	},
	"admin": {
		"*", // everything
	},
}
