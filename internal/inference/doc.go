// Package inference turns raw environment variable names into providers.
//
// A Classifier assigns every key to exactly one provider using an ordered
// rule table where the first match wins, so specific services must precede
// broad families (GitHub before Database). InferPermissions then annotates
// already classified providers with advisory access-scope hints derived from
// dependency names, deployment bindings and CI commands.
package inference
