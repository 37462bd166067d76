package feed

const wordpressRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:dc="http://purl.org/dc/elements/1.1/">
	<channel>
		<title>Cat Blog</title>
		<link>https://blog.example.org</link>
		<description>Notes about cats</description>
		<item>
			<title>First Post</title>
			<link>https://blog.example.org/2024/05/first-post/</link>
			<description>Hello cats</description>
			<content:encoded><![CDATA[<p>Full <b>content</b> here</p>]]></content:encoded>
			<guid>https://blog.example.org/?p=1</guid>
			<pubDate>Wed, 01 May 2024 12:00:00 GMT</pubDate>
			<dc:creator>Jane Doe</dc:creator>
			<category>News</category>
			<category>Open Source</category>
			<dc:subject>go</dc:subject>
		</item>
		<item>
			<title>Second Post</title>
			<link>https://blog.example.org/2024/05/second-post/</link>
			<description>More cats</description>
			<guid>https://blog.example.org/?p=2</guid>
			<pubDate>Thu, 02 May 2024 12:00:00 GMT</pubDate>
			<dc:creator>Bob</dc:creator>
			<dc:subject>bbolt</dc:subject>
			<dc:subject> </dc:subject>
		</item>
		<item>
			<title>Untitled link</title>
			<link>https://blog.example.org/2024/05/third/</link>
			<description>No guid</description>
			<pubDate>Fri, 03 May 2024 12:00:00 GMT</pubDate>
			<category>News</category>
			<category>news</category>
		</item>
	</channel>
</rss>`
