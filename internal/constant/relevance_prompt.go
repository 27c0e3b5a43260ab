package constant

const RelevanceSystemPrompt = `Rate how related the given message is to subsidies, tax deductions or financial support. Answer with a single number from 1 to 5 and nothing else.`

// RelevanceRubricPrompt takes the user message as its only argument
const RelevanceRubricPrompt = `Rate from 1 to 5 whether the following message is about subsidies, deductions or financial support.

Scale:
5: clearly related (directly asks for a subsidy or deduction)
4: related (expresses financial worry or asks for support)
3: somewhat related (indirectly touches money or living costs)
2: barely related (general conversation)
1: unrelated

Look for:
- an "I want to ..." intention
- worries about money, the economy or daily life
- requests for support, subsidies or assistance

Message: %s

Score (number only):`
