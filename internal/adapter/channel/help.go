package channel

const startText = `<b>Reverse image search</b>

Send me a photo, sticker, video or GIF and I will look it up on several
reverse image search engines for you.

Commands:
/engines - Overview of the supported search engines
/more - Detailed engine descriptions
/id - Show this chat's id
/help - This message`
