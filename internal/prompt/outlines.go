package prompt

import "contentforge/internal/core"

// outlines holds the hand-authored section structure for each article type.
var outlines = map[core.ArticleType]string{
	core.ArticleTypeInformational: `## Article Structure (Informational):
1. **Introduction** (100-150 words)
   - Open with a surprising statistic or the key takeaway
   - Use the target keyword in the first 50 words
   - Tell readers what they will learn and why it matters

2. **Executive Summary** (100-150 words)
   - 3-4 key findings as bullet points

3. **Main Sections** (8-12 H2 sections, 250-400 words each)
   - Phrase each H2 as a question readers actually ask
   - Add H3 subsections where a section runs long
   - Support every section with concrete data points
   - Connect sections with short transitions

4. **Examples and Case Studies** (300-400 words)
   - Real situations with measurable outcomes
   - Before and after comparisons

5. **Putting It Into Practice** (300-500 words)
   - Numbered steps with timelines
   - Tools and resources needed

6. **Common Mistakes** (200-300 words)
   - What to avoid and how to recover

7. **What Comes Next** (150-200 words)
   - Trends and developments worth watching

8. **FAQ** (300-400 words)
   - 7-10 conversational questions and answers

9. **Conclusion and Next Steps** (150-200 words)
   - Recap of the key points
   - One clear action the reader can take today

10. **Further Reading** (100-150 words)
    - Tools, templates and related resources`,

	core.ArticleTypeProductReview: `## Article Structure (Product Review):
1. **Introduction and Hook** (50-100 words)
   - Lead with the verdict or the most surprising finding
   - Use the target keyword in the first 50 words
   - Establish why the reviewer is credible

2. **Product Overview** (150-200 words)
   - What it is and who it is for
   - Key specifications
   - Price and value proposition

3. **Design and Build Quality** (200-300 words)
   - Materials and finish
   - Ergonomics
   - Durability observations

4. **Performance** (400-600 words)
   - Core functionality under test
   - Measurements and benchmarks
   - Real-world usage scenarios

5. **User Experience** (200-300 words)
   - Setup
   - Day-to-day use
   - Learning curve

6. **How It Compares** (200-300 words)
   - Direct competitors
   - Price against value
   - What only this product does

7. **Pros and Cons** (150-200 words)
   - What we loved
   - What could be better

8. **Who Should Buy It** (150-200 words)
   - Best for
   - Skip if
   - Alternatives to consider

9. **Where to Buy** (100-150 words)
   - Trusted retailers and current pricing

10. **Final Verdict** (150-200 words)
    - Overall assessment and a clear recommendation

11. **FAQ** (200-300 words)
    - 5-7 common questions with detailed answers`,

	core.ArticleTypeProductRoundup: `## Article Structure (Product Roundup):
1. **Introduction and Methodology** (100-150 words)
   - Hook with the headline finding
   - Which products are covered
   - How they were selected and tested

2. **Quick Comparison Table**
   - Key specifications side by side
   - Price, rating and standout feature per product

3. **Individual Reviews** (300-400 words each)
   - Overview and key specifications
   - Performance highlights
   - Pros and cons
   - Best for
   - Where to buy

4. **Head-to-Head Analysis** (300-400 words)
   - Category winners on the metrics that matter

5. **Best Picks by Use Case** (200-300 words)
   - Budget pick
   - Premium pick
   - Picks for specific needs

6. **Buying Guide** (200-300 words)
   - What to look for
   - Mistakes to avoid

7. **Final Recommendations** (150-200 words)
   - Best overall, runner-up and best value

8. **FAQ** (200-300 words)
   - 5-7 common questions`,

	core.ArticleTypeGuide: `## Article Structure (Step-by-Step Guide):
1. **Introduction** (100-150 words)
   - State the outcome the reader will achieve
   - Use the target keyword in the first 50 words
   - Estimate time, cost and difficulty

2. **Before You Start** (150-250 words)
   - Prerequisites
   - Tools and materials checklist

3. **Steps** (6-10 H2 steps, 200-350 words each)
   - Start each H2 with "Step N:" followed by an action verb
   - One task per step with the expected result
   - Call out warnings and pro tips inside the step

4. **Troubleshooting** (200-300 words)
   - Symptoms, causes and fixes for common failures

5. **Variations and Advanced Options** (150-250 words)
   - Ways to adapt the process for different situations

6. **FAQ** (200-300 words)
   - 5-7 questions readers ask after following the guide

7. **Conclusion** (100-150 words)
   - Recap of the steps
   - What to do next`,

	core.ArticleTypeListicle: `## Article Structure (Listicle):
1. **Introduction** (80-120 words)
   - Promise the value of the list in one sentence
   - Use the target keyword in the first 50 words
   - Explain how the items were chosen

2. **Quick List**
   - All items as a numbered list with one-line descriptions

3. **List Items** (7-15 H2 items, 150-250 words each)
   - Start each H2 with its number
   - Explain why the item made the list
   - Give one concrete example or data point per item
   - End with a practical takeaway

4. **Honorable Mentions** (100-200 words)
   - Items that almost made the cut and why

5. **How to Choose** (150-250 words)
   - Criteria for picking the right item for the reader

6. **FAQ** (200-300 words)
   - 5-7 common questions

7. **Conclusion** (100-150 words)
   - The single most important takeaway`,
}

// typeDescriptions is the one-line summary used in the article details.
var typeDescriptions = map[core.ArticleType]string{
	core.ArticleTypeInformational:  "Comprehensive informational guide that answers the reader's questions",
	core.ArticleTypeProductReview:  "In-depth product review with hands-on testing, pros and cons, and recommendations",
	core.ArticleTypeProductRoundup: "Comparison of multiple products with side-by-side analysis",
	core.ArticleTypeGuide:          "Step-by-step tutorial that walks the reader to a concrete result",
	core.ArticleTypeListicle:       "Numbered list article with a clear takeaway per item",
}

// schemaTypes is the primary schema.org type for each article type.
var schemaTypes = map[core.ArticleType]string{
	core.ArticleTypeInformational:  "Article",
	core.ArticleTypeProductReview:  "Review",
	core.ArticleTypeProductRoundup: "ItemList",
	core.ArticleTypeGuide:          "HowTo",
	core.ArticleTypeListicle:       "ItemList",
}

// Outline returns the structural template for an article type, falling back
// to the informational outline for unknown types.
func Outline(t core.ArticleType) string {
	if o, ok := outlines[t]; ok {
		return o
	}
	return outlines[core.ArticleTypeInformational]
}

func typeDescription(t core.ArticleType) string {
	if d, ok := typeDescriptions[t]; ok {
		return d
	}
	return typeDescriptions[core.ArticleTypeInformational]
}

func schemaType(t core.ArticleType) string {
	if s, ok := schemaTypes[t]; ok {
		return s
	}
	return "Article"
}
