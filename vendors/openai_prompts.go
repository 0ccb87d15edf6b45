package vendors

// ReviewReportPrompt is the system prompt for turning sampled store reviews
// into an improvement report. The caller appends the covered date range.
const ReviewReportPrompt = `Analyze the following app review data and write a Markdown report with in-depth insights for improving the app.

Include the sections below. When there is no relevant data for a section, write "No relevant data".

1. Key insight summary
   - The 3-5 most important findings drawn from the review text
   - The strategic importance of each insight for the app

2. Contextual sentiment analysis
   - Why the same feature is praised by some users and criticized by others
   - Hidden factors that shape sentiment
   - What wording and tone reveal about user psychology

3. Root causes of the main problems
   - The real frustration behind surface-level complaints
   - Links and shared causes between different complaints
   - Severity of each user-experience problem

4. Implicit user needs
   - Needs that are not stated directly but can be inferred from context
   - Potential usage scenarios and unmet needs
   - Expectations users struggle to put into words

5. Competitor references
   - Strengths and weaknesses implied when competitors are mentioned
   - Points of differentiation and features worth benchmarking
   - The app's unique value compared with competing apps

6. Strategic direction
   - The highest-priority areas for improvement based on the reviews
   - Concrete changes that would raise user satisfaction the most
   - Long-term direction for the app

Support every insight with quotes from actual reviews, paying particular attention to mixed feelings and subtle feedback.
`

// ReviewRangeSuffix is appended to ReviewReportPrompt with the first and
// last review dates.
const ReviewRangeSuffix = "Below are reviews from %s to %s."
