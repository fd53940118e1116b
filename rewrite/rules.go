package rewrite

/*
	Rules is the identity set the search draws from.  All of these hold
	over the reals; whether they help in floating point is for the search
	to measure.
*/
var Rules = []Rule{
	// Reassociation and reordering.
	MustRule("+-commutative", "(+ a b)", "(+ b a)"),
	MustRule("*-commutative", "(* a b)", "(* b a)"),
	MustRule("associate-+r+", "(+ a (+ b c))", "(+ (+ a b) c)"),
	MustRule("associate-+l+", "(+ (+ a b) c)", "(+ a (+ b c))"),
	MustRule("associate--l+", "(- (+ a b) c)", "(+ a (- b c))"),
	MustRule("associate-+l-", "(+ (- a b) c)", "(- a (- b c))"),
	MustRule("associate-*r*", "(* a (* b c))", "(* (* a b) c)"),
	MustRule("associate-*l*", "(* (* a b) c)", "(* a (* b c))"),
	MustRule("associate-/l*", "(/ (* a b) c)", "(* a (/ b c))"),
	MustRule("associate-*r/", "(* a (/ b c))", "(/ (* a b) c)"),
	MustRule("distribute-lft-in", "(* a (+ b c))", "(+ (* a b) (* a c))"),
	MustRule("distribute-lft-out", "(+ (* a b) (* a c))", "(* a (+ b c))"),
	MustRule("distribute-lft-out--", "(- (* a b) (* a c))", "(* a (- b c))"),

	// Cancellation removers.
	MustRule("flip--", "(- (sqrt a) (sqrt b))", "(/ (- a b) (+ (sqrt a) (sqrt b)))"),
	MustRule("flip-+", "(+ (sqrt a) (sqrt b))", "(/ (- a b) (- (sqrt a) (sqrt b)))"),
	MustRule("difference-of-squares", "(- (* a a) (* b b))", "(* (+ a b) (- a b))"),
	MustRule("frac-sub", "(- (/ a b) (/ c d))", "(/ (- (* a d) (* b c)) (* b d))"),
	MustRule("frac-add", "(+ (/ a b) (/ c d))", "(/ (+ (* a d) (* b c)) (* b d))"),
	MustRule("sub-div", "(- (/ a c) (/ b c))", "(/ (- a b) c)"),
	MustRule("div-sub", "(/ (- a b) c)", "(- (/ a c) (/ b c))"),
	MustRule("1-sub-cos", "(- 1 (cos a))", "(/ (* (sin a) (sin a)) (+ 1 (cos a)))"),
	MustRule("log-div", "(- (log a) (log b))", "(log (/ a b))"),
	MustRule("exp-diff", "(/ (exp a) (exp b))", "(exp (- a b))"),

	// Special functions.
	MustRule("expm1-def", "(- (exp a) 1)", "(expm1 a)"),
	MustRule("log1p-def", "(log (+ 1 a))", "(log1p a)"),
	MustRule("log1p-def-r", "(log (+ a 1))", "(log1p a)"),
	MustRule("hypot-def", "(sqrt (+ (* a a) (* b b)))", "(hypot a b)"),
	MustRule("fma-def", "(+ (* a b) c)", "(fma a b c)"),
	MustRule("fma-udef", "(fma a b c)", "(+ (* a b) c)"),
	MustRule("tan-quot", "(tan a)", "(/ (sin a) (cos a))"),
	MustRule("quot-tan", "(/ (sin a) (cos a))", "(tan a)"),
	MustRule("pow2", "(pow a 2)", "(* a a)"),
	MustRule("pow1/2", "(pow a 1/2)", "(sqrt a)"),
	MustRule("sqr-abs", "(sqrt (* a a))", "(fabs a)"),
}

// Lookup finds a rule by name.
func Lookup(name string) (Rule, bool) {
	for _, r := range Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
